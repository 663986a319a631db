package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Purposes a one-time code can be minted for
const (
	CodePurposeLogin          = "login"
	CodePurposeDeleteDocument = "delete-document"
	CodePurposePasswordReset  = "password-reset"
)

// OneTimeCode holds the structure for the onetimecodes collection. Codes are
// single use and expire ten minutes after CreatedAt.
type OneTimeCode struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	UserID    string             `json:"userID" bson:"userID"`
	Purpose   string             `json:"purpose" bson:"purpose"`
	Code      string             `json:"code" bson:"code"`
	Channel   string             `json:"channel" bson:"channel"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
