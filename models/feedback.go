package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Feedback holds the structure for the feedback collection
type Feedback struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	UserID    string             `json:"userID" bson:"userID"`
	Message   string             `json:"message" bson:"message"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
