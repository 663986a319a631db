package databases

//go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const userCollection = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	InsertOne(ctx context.Context, user models.User) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	var users []models.User
	err := u.db.Collection(userCollection).Find(ctx, filter, opts...).Decode(&users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return u.db.Collection(userCollection).CountDocuments(ctx, filter)
}

func (u *userDatabase) InsertOne(ctx context.Context, user models.User) (interface{}, error) {
	res, err := u.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (u *userDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) error {
	_, err := u.db.Collection(userCollection).UpdateOne(ctx, filter, update)
	return err
}
