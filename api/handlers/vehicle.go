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

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
)

// Vehicle exposes the vehicle endpoints. Deleting a vehicle cascades to its
// documents through DocDB.
type Vehicle struct {
	DB    databases.VehicleDatabase
	DocDB databases.DocumentDatabase
	LogDB databases.LogDatabase
}

// normalizeVehicleNumber uppercases the plate and strips spaces so duplicate
// checks are not defeated by formatting
func normalizeVehicleNumber(number string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(number), " ", ""))
}

// CreateVehicleHandler registers a vehicle under the authenticated user
func (v Vehicle) CreateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Name          string `json:"name"`
		VehicleNumber string `json:"vehicleNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	requestBody.Name = strings.TrimSpace(requestBody.Name)
	number := normalizeVehicleNumber(requestBody.VehicleNumber)
	if requestBody.Name == "" || number == "" {
		config.ErrorStatus("name and vehicleNumber are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := v.DB.CountDocuments(ctx, bson.M{"vehicleNumber": number})
	if err != nil {
		config.ErrorStatus("failed to check for existing vehicle", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("a vehicle with that number already exists", http.StatusConflict, w, fmt.Errorf("duplicate vehicle number"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	vehicle := models.Vehicle{
		ID:            primitive.NewObjectID(),
		Name:          requestBody.Name,
		VehicleNumber: number,
		UserID:        api.UserIDFromRequest(r),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := v.DB.InsertOne(ctx, vehicle); err != nil {
		config.ErrorStatus("failed to create vehicle", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(v.LogDB, vehicle.UserID, fmt.Sprintf("added vehicle %s (%s)", vehicle.Name, vehicle.VehicleNumber))

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// vehicleForRequest loads the vehicle from the path and enforces that it
// belongs to the authenticated user. It writes the error response itself and
// returns nil when the request should not proceed.
func (v Vehicle) vehicleForRequest(w http.ResponseWriter, r *http.Request) *models.Vehicle {
	vehicleID := mux.Vars(r)["vehicle_id"]
	objID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return nil
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicle, err := v.DB.FindOne(ctx, bson.M{"_id": objID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return nil
	}
	if vehicle.UserID != api.UserIDFromRequest(r) {
		config.ErrorStatus("vehicle belongs to another user", http.StatusForbidden, w, fmt.Errorf("ownership check failed"))
		return nil
	}
	return vehicle
}

// VehicleByIDHandler returns a single vehicle owned by the requester
func (v Vehicle) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	vehicle := v.vehicleForRequest(w, r)
	if vehicle == nil {
		return
	}

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateVehicleHandler renames a vehicle or changes its registration number
func (v Vehicle) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Name          *string `json:"name"`
		VehicleNumber *string `json:"vehicleNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	vehicle := v.vehicleForRequest(w, r)
	if vehicle == nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if requestBody.Name != nil {
		name := strings.TrimSpace(*requestBody.Name)
		if name == "" {
			config.ErrorStatus("name cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty name"))
			return
		}
		set["name"] = name
	}
	if requestBody.VehicleNumber != nil {
		number := normalizeVehicleNumber(*requestBody.VehicleNumber)
		if number == "" {
			config.ErrorStatus("vehicleNumber cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty vehicle number"))
			return
		}
		count, err := v.DB.CountDocuments(ctx, bson.M{"vehicleNumber": number, "_id": bson.M{"$ne": vehicle.ID}})
		if err != nil {
			config.ErrorStatus("failed to check for existing vehicle", http.StatusInternalServerError, w, err)
			return
		}
		if count > 0 {
			config.ErrorStatus("a vehicle with that number already exists", http.StatusConflict, w, fmt.Errorf("duplicate vehicle number"))
			return
		}
		set["vehicleNumber"] = number
	}

	if err := v.DB.UpdateOne(ctx, bson.M{"_id": vehicle.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update vehicle", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := v.DB.FindOne(ctx, bson.M{"_id": vehicle.ID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	recordLog(v.LogDB, vehicle.UserID, fmt.Sprintf("updated vehicle %s", updated.VehicleNumber))

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteVehicleHandler removes a vehicle and every document filed under it
func (v Vehicle) DeleteVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicle := v.vehicleForRequest(w, r)
	if vehicle == nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// documents go first so a crash between the two deletes never leaves
	// orphaned documents pointing at a live vehicle
	if err := v.DocDB.DeleteMany(ctx, bson.M{"vehicleID": vehicle.ID.Hex()}); err != nil {
		config.ErrorStatus("failed to delete vehicle documents", http.StatusInternalServerError, w, err)
		return
	}
	if err := v.DB.DeleteOne(ctx, bson.M{"_id": vehicle.ID}); err != nil {
		config.ErrorStatus("failed to delete vehicle", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(v.LogDB, vehicle.UserID, fmt.Sprintf("deleted vehicle %s (%s)", vehicle.Name, vehicle.VehicleNumber))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "vehicle and its documents deleted",
	})
}

// VehiclesHandler lists the authenticated user's vehicles
func (v Vehicle) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicles, err := v.DB.Find(ctx, bson.M{"userID": api.UserIDFromRequest(r)})
	if err != nil {
		config.ErrorStatus("failed to get vehicles", http.StatusInternalServerError, w, err)
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}

	b, err := json.Marshal(vehicles)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
