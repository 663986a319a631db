package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
)

// Log exposes the activity log endpoints
type Log struct {
	DB databases.LogDatabase
}

// recordLog appends an entry to the activity log. Logging is best effort and
// runs off the request path; a failed write never fails the request.
func recordLog(db databases.LogDatabase, userID, action string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
		defer cancel()
		_, err := db.InsertOne(ctx, models.LogEntry{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Action:    action,
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		})
		if err != nil {
			zap.S().Warnw("failed to write activity log entry",
				"userID", userID,
				"action", action,
				"error", err)
		}
	}()
}

// LogsHandler returns the authenticated user's activity log, newest first
func (l Log) LogsHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserIDFromRequest(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100)
	entries, err := l.DB.Find(ctx, bson.M{"userID": userID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get activity log", http.StatusInternalServerError, w, err)
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
