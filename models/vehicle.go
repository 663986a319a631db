package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Vehicle holds the structure for the vehicles collection. VehicleNumber is
// the registration plate and must be unique across the fleet.
type Vehicle struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	Name          string             `json:"name" bson:"name"`
	VehicleNumber string             `json:"vehicleNumber" bson:"vehicleNumber"`
	UserID        string             `json:"userID" bson:"userID"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
