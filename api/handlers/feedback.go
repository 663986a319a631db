package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
)

// Feedback exposes the feedback endpoint
type Feedback struct {
	DB databases.FeedbackDatabase
}

// CreateFeedbackHandler stores a feedback message from the authenticated user
func (f Feedback) CreateFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Message = strings.TrimSpace(requestBody.Message)
	if requestBody.Message == "" {
		config.ErrorStatus("message is required", http.StatusBadRequest, w, fmt.Errorf("empty message"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	feedback := models.Feedback{
		ID:        primitive.NewObjectID(),
		UserID:    api.UserIDFromRequest(r),
		Message:   requestBody.Message,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := f.DB.InsertOne(ctx, feedback); err != nil {
		config.ErrorStatus("failed to store feedback", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(feedback)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
