package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DocumentType enumerates the regulatory document kinds we track
type DocumentType string

// Known document types. DocumentTypeOther is the generic fallback for
// anything that only needs a serial number and a validity window.
const (
	DocumentTypeInsurance DocumentType = "Insurance"
	DocumentTypeEmission  DocumentType = "Emission Certificate"
	DocumentTypePermit    DocumentType = "Permit"
	DocumentTypeFitness   DocumentType = "Fitness Certificate"
	DocumentTypeRoadTax   DocumentType = "Road Tax"
	DocumentTypeOther     DocumentType = "Other"
)

// Valid reports whether t is one of the known document types
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeInsurance, DocumentTypeEmission, DocumentTypePermit,
		DocumentTypeFitness, DocumentTypeRoadTax, DocumentTypeOther:
		return true
	}
	return false
}

// Document holds the structure for the documents collection. Details carries
// the type-specific fields (policy number, issuing authority, coverage
// amount, ...) as a flat string map so each type can bring its own shape.
type Document struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	DocumentType DocumentType       `json:"documentType" bson:"documentType"`
	SerialNumber string             `json:"serialNumber" bson:"serialNumber"`
	StartDate    primitive.DateTime `json:"startDate" bson:"startDate"`
	EndDate      primitive.DateTime `json:"endDate" bson:"endDate"`
	Details      map[string]string  `json:"details" bson:"details"`
	VehicleID    string             `json:"vehicleID" bson:"vehicleID"`
	UserID       string             `json:"userID" bson:"userID"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
