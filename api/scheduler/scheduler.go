package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
)

// scanTimeout bounds a single reminder sweep
const scanTimeout = 5 * time.Minute

// Scheduler runs the daily expiry reminder sweep over the documents
// collection. The reminder window comes from the notifier's policy so the
// candidate query and the per-document decision can never disagree.
type Scheduler struct {
	cron     *cron.Cron
	DocDB    databases.DocumentDatabase
	VDB      databases.VehicleDatabase
	UDB      databases.UserDatabase
	Notifier *notifications.Notifier
	cronSpec string
}

// New creates a scheduler that scans on the given cron spec and notifies for
// documents expiring within the notifier's policy window
func New(
	docDB databases.DocumentDatabase,
	vDB databases.VehicleDatabase,
	uDB databases.UserDatabase,
	notifier *notifications.Notifier,
	cronSpec string,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		DocDB:    docDB,
		VDB:      vDB,
		UDB:      uDB,
		Notifier: notifier,
		cronSpec: cronSpec,
	}
}

// Start begins the scheduler with the reminder sweep registered
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(s.cronSpec, s.ScanExpiringDocuments)
	if err != nil {
		zap.S().Errorw("failed to register expiry scan job", "spec", s.cronSpec, "error", err)
		return
	}

	s.cron.Start()
	zap.S().Infow("Expiry reminder scheduler started", "spec", s.cronSpec, "windowDays", s.Notifier.Policy.WindowDays)
}

// Stop gracefully stops the scheduler, waiting for a running sweep to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Expiry reminder scheduler stopped")
}

// ScanExpiringDocuments walks every document whose end date falls inside the
// reminder window and dispatches email/SMS reminders to the owners. A failure
// on one document never stops the sweep; it is logged and the sweep moves on.
func (s *Scheduler) ScanExpiringDocuments() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	now := time.Now()
	windowDays := s.Notifier.Policy.WindowDays
	zap.S().Infow("Running expiry reminder sweep", "windowDays", windowDays)

	// candidate set: end date inside the window, padded a day on both sides
	// so timezone rounding never drops a boundary document. The policy makes
	// the exact in/out call per document.
	filter := bson.M{
		"endDate": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now.Add(-24 * time.Hour)),
			"$lte": primitive.NewDateTimeFromTime(now.Add(time.Duration(windowDays+1) * 24 * time.Hour)),
		},
	}

	documents, err := s.DocDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find documents for expiry sweep", "error", err)
		return
	}

	emailsSent, smsSent := 0, 0
	for _, doc := range documents {
		emailed, smsed := s.notifyOwner(ctx, doc, now)
		if emailed {
			emailsSent++
		}
		if smsed {
			smsSent++
		}
	}

	zap.S().Infow("Expiry reminder sweep complete",
		"documentsChecked", len(documents),
		"emailsSent", emailsSent,
		"smsSent", smsSent,
	)
}

// notifyOwner resolves the vehicle and owner for a document and hands it to
// the notifier
func (s *Scheduler) notifyOwner(ctx context.Context, doc models.Document, now time.Time) (emailed, smsed bool) {
	vehicleID, err := primitive.ObjectIDFromHex(doc.VehicleID)
	if err != nil {
		zap.S().Warnw("document has invalid vehicle id", "documentId", doc.ID.Hex(), "vehicleId", doc.VehicleID)
		return false, false
	}
	vehicle, err := s.VDB.FindOne(ctx, bson.M{"_id": vehicleID})
	if err != nil {
		zap.S().Warnw("failed to resolve vehicle for expiry reminder", "documentId", doc.ID.Hex(), "error", err)
		return false, false
	}

	userID, err := primitive.ObjectIDFromHex(doc.UserID)
	if err != nil {
		zap.S().Warnw("document has invalid user id", "documentId", doc.ID.Hex(), "userId", doc.UserID)
		return false, false
	}
	user, err := s.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		zap.S().Warnw("failed to resolve user for expiry reminder", "documentId", doc.ID.Hex(), "error", err)
		return false, false
	}

	return s.Notifier.Notify(doc, *vehicle, *user, now)
}
