package databases

//go generate: mockery --name DocumentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const documentCollection = "documents"

// DocumentDatabase contains the methods to use with the document database
type DocumentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Document, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Document, error)
	InsertOne(ctx context.Context, document models.Document) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) error
	DeleteOne(ctx context.Context, filter interface{}) error
	DeleteMany(ctx context.Context, filter interface{}) error
}

type documentDatabase struct {
	db DatabaseHelper
}

// NewDocumentDatabase initializes a new instance of document database with the provided db connection
func NewDocumentDatabase(db DatabaseHelper) DocumentDatabase {
	return &documentDatabase{
		db: db,
	}
}

func (c *documentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Document, error) {
	document := &models.Document{}
	err := c.db.Collection(documentCollection).FindOne(ctx, filter).Decode(&document)
	if err != nil {
		return nil, err
	}
	return document, nil
}

func (c *documentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Document, error) {
	var documents []models.Document
	err := c.db.Collection(documentCollection).Find(ctx, filter, opts...).Decode(&documents)
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (c *documentDatabase) InsertOne(ctx context.Context, document models.Document) (interface{}, error) {
	res, err := c.db.Collection(documentCollection).InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *documentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) error {
	_, err := c.db.Collection(documentCollection).UpdateOne(ctx, filter, update)
	return err
}

func (c *documentDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	_, err := c.db.Collection(documentCollection).DeleteOne(ctx, filter)
	return err
}

func (c *documentDatabase) DeleteMany(ctx context.Context, filter interface{}) error {
	_, err := c.db.Collection(documentCollection).DeleteMany(ctx, filter)
	return err
}
