package databases

//go generate: mockery --name LogDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const logCollection = "logs"

// LogDatabase contains the methods to use with the activity log database
type LogDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LogEntry, error)
	InsertOne(ctx context.Context, entry models.LogEntry) (interface{}, error)
}

type logDatabase struct {
	db DatabaseHelper
}

// NewLogDatabase initializes a new instance of log database with the provided db connection
func NewLogDatabase(db DatabaseHelper) LogDatabase {
	return &logDatabase{
		db: db,
	}
}

func (c *logDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := c.db.Collection(logCollection).Find(ctx, filter, opts...).Decode(&entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *logDatabase) InsertOne(ctx context.Context, entry models.LogEntry) (interface{}, error) {
	res, err := c.db.Collection(logCollection).InsertOne(ctx, entry)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}
