package databases

//go generate: mockery --name VehicleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const vehicleCollection = "vehicles"

// VehicleDatabase contains the methods to use with the vehicle database
type VehicleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	InsertOne(ctx context.Context, vehicle models.Vehicle) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) error
	DeleteOne(ctx context.Context, filter interface{}) error
}

type vehicleDatabase struct {
	db DatabaseHelper
}

// NewVehicleDatabase initializes a new instance of vehicle database with the provided db connection
func NewVehicleDatabase(db DatabaseHelper) VehicleDatabase {
	return &vehicleDatabase{
		db: db,
	}
}

func (c *vehicleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := c.db.Collection(vehicleCollection).FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (c *vehicleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.db.Collection(vehicleCollection).Find(ctx, filter, opts...).Decode(&vehicles)
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *vehicleDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(vehicleCollection).CountDocuments(ctx, filter)
}

func (c *vehicleDatabase) InsertOne(ctx context.Context, vehicle models.Vehicle) (interface{}, error) {
	res, err := c.db.Collection(vehicleCollection).InsertOne(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *vehicleDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) error {
	_, err := c.db.Collection(vehicleCollection).UpdateOne(ctx, filter, update)
	return err
}

func (c *vehicleDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	_, err := c.db.Collection(vehicleCollection).DeleteOne(ctx, filter)
	return err
}
