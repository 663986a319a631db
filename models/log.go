package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// LogEntry holds the structure for the logs collection, an append-only
// record of user actions
type LogEntry struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	UserID    string             `json:"userID" bson:"userID"`
	Action    string             `json:"action" bson:"action"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
