package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
)

// dateLayout is the wire format for start/end dates
const dateLayout = "2006-01-02"

// Document exposes the regulatory document endpoints. Creating or renewing a
// document runs the expiry policy immediately so a document already inside
// the reminder window gets its notice without waiting for the nightly scan.
type Document struct {
	DB       databases.DocumentDatabase
	VDB      databases.VehicleDatabase
	UDB      databases.UserDatabase
	LogDB    databases.LogDatabase
	Issuer   *CodeIssuer
	Notifier *notifications.Notifier
}

func parseDate(value string) (primitive.DateTime, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return 0, fmt.Errorf("dates must be in YYYY-MM-DD format: %w", err)
	}
	return primitive.NewDateTimeFromTime(t), nil
}

// notifyIfExpiring resolves the document's vehicle and owner and runs the
// expiry policy against it off the request path
func (d Document) notifyIfExpiring(doc models.Document) {
	go func() {
		ctx, cancel := api.WithQueryTimeout(nil)
		defer cancel()

		vehicleID, err := primitive.ObjectIDFromHex(doc.VehicleID)
		if err != nil {
			return
		}
		vehicle, err := d.VDB.FindOne(ctx, bson.M{"_id": vehicleID})
		if err != nil {
			zap.S().Warnw("failed to resolve vehicle for reminder", "documentId", doc.ID.Hex(), "error", err)
			return
		}
		userID, err := primitive.ObjectIDFromHex(doc.UserID)
		if err != nil {
			return
		}
		user, err := d.UDB.FindOne(ctx, bson.M{"_id": userID})
		if err != nil {
			zap.S().Warnw("failed to resolve user for reminder", "documentId", doc.ID.Hex(), "error", err)
			return
		}
		d.Notifier.Notify(doc, *vehicle, *user, time.Now())
	}()
}

// documentForRequest loads the document from the path and enforces that it
// belongs to the authenticated user. It writes the error response itself and
// returns nil when the request should not proceed.
func (d Document) documentForRequest(w http.ResponseWriter, r *http.Request) *models.Document {
	documentID := mux.Vars(r)["document_id"]
	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return nil
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := d.DB.FindOne(ctx, bson.M{"_id": objID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return nil
	}
	if doc.UserID != api.UserIDFromRequest(r) {
		config.ErrorStatus("document belongs to another user", http.StatusForbidden, w, fmt.Errorf("ownership check failed"))
		return nil
	}
	return doc
}

// DocumentsByVehicleIDHandler lists every document filed under a vehicle the
// requester owns
func (d Document) DocumentsByVehicleIDHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	objID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicle, err := d.VDB.FindOne(ctx, bson.M{"_id": objID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}
	if vehicle.UserID != api.UserIDFromRequest(r) {
		config.ErrorStatus("vehicle belongs to another user", http.StatusForbidden, w, fmt.Errorf("ownership check failed"))
		return
	}

	documents, err := d.DB.Find(ctx, bson.M{"vehicleID": vehicle.ID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get documents", http.StatusInternalServerError, w, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}

	b, err := json.Marshal(documents)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateDocumentHandler files a new document under one of the requester's
// vehicles
func (d Document) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		VehicleID    string            `json:"vehicleID"`
		DocumentType string            `json:"documentType"`
		SerialNumber string            `json:"serialNumber"`
		StartDate    string            `json:"startDate"`
		EndDate      string            `json:"endDate"`
		Details      map[string]string `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	docType := models.DocumentType(requestBody.DocumentType)
	if !docType.Valid() {
		config.ErrorStatus("unknown document type", http.StatusBadRequest, w, fmt.Errorf("invalid documentType %q", requestBody.DocumentType))
		return
	}
	requestBody.SerialNumber = strings.TrimSpace(requestBody.SerialNumber)
	if requestBody.SerialNumber == "" {
		config.ErrorStatus("serialNumber is required", http.StatusBadRequest, w, fmt.Errorf("missing serial number"))
		return
	}

	startDate, err := parseDate(requestBody.StartDate)
	if err != nil {
		config.ErrorStatus("invalid startDate", http.StatusBadRequest, w, err)
		return
	}
	endDate, err := parseDate(requestBody.EndDate)
	if err != nil {
		config.ErrorStatus("invalid endDate", http.StatusBadRequest, w, err)
		return
	}
	if endDate <= startDate {
		config.ErrorStatus("endDate must be after startDate", http.StatusBadRequest, w, fmt.Errorf("invalid validity window"))
		return
	}

	vehicleID, err := primitive.ObjectIDFromHex(requestBody.VehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicle, err := d.VDB.FindOne(ctx, bson.M{"_id": vehicleID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}
	if vehicle.UserID != api.UserIDFromRequest(r) {
		config.ErrorStatus("vehicle belongs to another user", http.StatusForbidden, w, fmt.Errorf("ownership check failed"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	doc := models.Document{
		ID:           primitive.NewObjectID(),
		DocumentType: docType,
		SerialNumber: requestBody.SerialNumber,
		StartDate:    startDate,
		EndDate:      endDate,
		Details:      requestBody.Details,
		VehicleID:    vehicle.ID.Hex(),
		UserID:       vehicle.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := d.DB.InsertOne(ctx, doc); err != nil {
		config.ErrorStatus("failed to create document", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(d.LogDB, doc.UserID, fmt.Sprintf("added %s for vehicle %s", doc.DocumentType, vehicle.VehicleNumber))
	d.notifyIfExpiring(doc)

	b, err := json.Marshal(doc)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DocumentByIDHandler returns a single document owned by the requester
func (d Document) DocumentByIDHandler(w http.ResponseWriter, r *http.Request) {
	doc := d.documentForRequest(w, r)
	if doc == nil {
		return
	}

	b, err := json.Marshal(doc)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateDocumentHandler edits a document's serial number, dates or details
func (d Document) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		SerialNumber *string            `json:"serialNumber"`
		StartDate    *string            `json:"startDate"`
		EndDate      *string            `json:"endDate"`
		Details      *map[string]string `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	doc := d.documentForRequest(w, r)
	if doc == nil {
		return
	}

	startDate := doc.StartDate
	endDate := doc.EndDate
	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}

	if requestBody.SerialNumber != nil {
		serial := strings.TrimSpace(*requestBody.SerialNumber)
		if serial == "" {
			config.ErrorStatus("serialNumber cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty serial number"))
			return
		}
		set["serialNumber"] = serial
	}
	if requestBody.StartDate != nil {
		parsed, err := parseDate(*requestBody.StartDate)
		if err != nil {
			config.ErrorStatus("invalid startDate", http.StatusBadRequest, w, err)
			return
		}
		startDate = parsed
		set["startDate"] = parsed
	}
	if requestBody.EndDate != nil {
		parsed, err := parseDate(*requestBody.EndDate)
		if err != nil {
			config.ErrorStatus("invalid endDate", http.StatusBadRequest, w, err)
			return
		}
		endDate = parsed
		set["endDate"] = parsed
	}
	if endDate <= startDate {
		config.ErrorStatus("endDate must be after startDate", http.StatusBadRequest, w, fmt.Errorf("invalid validity window"))
		return
	}
	if requestBody.Details != nil {
		set["details"] = *requestBody.Details
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := d.DB.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update document", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := d.DB.FindOne(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return
	}

	recordLog(d.LogDB, doc.UserID, fmt.Sprintf("updated %s %s", updated.DocumentType, updated.SerialNumber))

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RequestDeleteCodeHandler sends the owner a code that authorizes deleting
// the document
func (d Document) RequestDeleteCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	doc := d.documentForRequest(w, r)
	if doc == nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(doc.UserID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}
	user, err := d.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	if err := d.Issuer.Issue(ctx, *user, models.CodePurposeDeleteDocument, "email"); err != nil {
		config.ErrorStatus("failed to send delete code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "a verification code has been sent to your email",
	})
}

// DeleteDocumentHandler removes a document. Deletion is gated on a one-time
// code previously requested through RequestDeleteCodeHandler.
func (d Document) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	doc := d.documentForRequest(w, r)
	if doc == nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := d.Issuer.Verify(ctx, doc.UserID, models.CodePurposeDeleteDocument, requestBody.Code); err != nil {
		config.ErrorStatus("invalid code", http.StatusUnauthorized, w, err)
		return
	}

	if err := d.DB.DeleteOne(ctx, bson.M{"_id": doc.ID}); err != nil {
		config.ErrorStatus("failed to delete document", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(d.LogDB, doc.UserID, fmt.Sprintf("deleted %s %s", doc.DocumentType, doc.SerialNumber))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "document deleted",
	})
}

// RenewDocumentHandler replaces the document's validity window and serial
// number with the renewed ones
func (d Document) RenewDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		SerialNumber string `json:"serialNumber"`
		StartDate    string `json:"startDate"`
		EndDate      string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	doc := d.documentForRequest(w, r)
	if doc == nil {
		return
	}

	startDate, err := parseDate(requestBody.StartDate)
	if err != nil {
		config.ErrorStatus("invalid startDate", http.StatusBadRequest, w, err)
		return
	}
	endDate, err := parseDate(requestBody.EndDate)
	if err != nil {
		config.ErrorStatus("invalid endDate", http.StatusBadRequest, w, err)
		return
	}
	if endDate <= startDate {
		config.ErrorStatus("endDate must be after startDate", http.StatusBadRequest, w, fmt.Errorf("invalid validity window"))
		return
	}

	set := bson.M{
		"startDate": startDate,
		"endDate":   endDate,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}
	if serial := strings.TrimSpace(requestBody.SerialNumber); serial != "" {
		set["serialNumber"] = serial
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := d.DB.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to renew document", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := d.DB.FindOne(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return
	}

	recordLog(d.LogDB, doc.UserID, fmt.Sprintf("renewed %s %s", updated.DocumentType, updated.SerialNumber))
	d.notifyIfExpiring(*updated)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DocumentByRenewalTokenHandler resolves an emailed renewal link to the
// document it points at. The token is the only credential, so expired links
// stop working without any session.
func (d Document) DocumentByRenewalTokenHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	documentID, err := notifications.ParseRenewalToken(token, d.Notifier.LinkSecret)
	if err != nil {
		config.ErrorStatus("invalid or expired renewal link", http.StatusUnauthorized, w, err)
		return
	}

	objID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := d.DB.FindOne(ctx, bson.M{"_id": objID})
	if err != nil {
		config.ErrorStatus("failed to get document by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(doc)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
