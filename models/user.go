package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Privacy levels a user can pick for their profile
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacyCustom  = "custom"
)

// User holds the structure for the users collection
type User struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id"`
	Username             string             `json:"username" bson:"username"`
	Email                string             `json:"email" bson:"email"`
	Phone                string             `json:"phone" bson:"phone"`
	Password             string             `json:"-" bson:"password"`
	ProfilePhoto         string             `json:"profilePhoto" bson:"profilePhoto"`
	NotificationsEnabled bool               `json:"notificationsEnabled" bson:"notificationsEnabled"`
	Privacy              string             `json:"privacy" bson:"privacy"`
	CreatedAt            primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt            primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
