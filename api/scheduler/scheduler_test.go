package scheduler_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetdocs/fleetdocs-api/api/scheduler"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/databases/mocks"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
)

type countingMailer struct {
	sent int
}

func (c *countingMailer) SendEmail(subject string, recipients []string, plainText, htmlContent string) error {
	c.sent++
	return nil
}

type countingSMS struct {
	sent int
}

func (c *countingSMS) SendSMS(to, body string) (string, error) {
	c.sent++
	return "SM123", nil
}

func expiringDocument(vehicleID, userID primitive.ObjectID, endDate time.Time) models.Document {
	return models.Document{
		ID:           primitive.NewObjectID(),
		DocumentType: models.DocumentTypeInsurance,
		SerialNumber: "POL-1",
		EndDate:      primitive.NewDateTimeFromTime(endDate),
		VehicleID:    vehicleID.Hex(),
		UserID:       userID.Hex(),
	}
}

// buildDB wires a DatabaseHelper mock whose documents collection returns docs
// and whose vehicles/users collections resolve every id successfully
func buildDB(t *testing.T, docs []models.Document, user models.User) *mocks.DatabaseHelper {
	t.Helper()
	db := &mocks.DatabaseHelper{}

	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Document)
		*arg = docs
	})
	docsConn := &mocks.CollectionHelper{}
	docsConn.On("Find", mock.Anything, mock.Anything).Return(cursor)
	db.On("Collection", "documents").Return(docsConn)

	vehicleResult := &mocks.SingleResultHelper{}
	vehicleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Vehicle)
		**arg = models.Vehicle{ID: primitive.NewObjectID(), Name: "Delivery Van", VehicleNumber: "KA01AB1234"}
	})
	vehiclesConn := &mocks.CollectionHelper{}
	vehiclesConn.On("FindOne", mock.Anything, mock.Anything).Return(vehicleResult)
	db.On("Collection", "vehicles").Return(vehiclesConn)

	userResult := &mocks.SingleResultHelper{}
	userResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = user
	})
	usersConn := &mocks.CollectionHelper{}
	usersConn.On("FindOne", mock.Anything, mock.Anything).Return(userResult)
	db.On("Collection", "users").Return(usersConn)

	return db
}

func newScheduler(db databases.DatabaseHelper, mailer *countingMailer, sms *countingSMS, windowDays int) *scheduler.Scheduler {
	notifier := &notifications.Notifier{
		Policy:     notifications.Policy{WindowDays: windowDays},
		Mailer:     mailer,
		SMS:        sms,
		BaseURL:    "https://fleetdocs.app",
		LinkSecret: "test-secret",
	}
	return scheduler.New(
		databases.NewDocumentDatabase(db),
		databases.NewVehicleDatabase(db),
		databases.NewUserDatabase(db),
		notifier,
		"0 6 * * *",
	)
}

func TestScanExpiringDocumentsSendsReminders(t *testing.T) {
	userID := primitive.NewObjectID()
	docs := []models.Document{
		expiringDocument(primitive.NewObjectID(), userID, time.Now().Add(3*24*time.Hour)),
		expiringDocument(primitive.NewObjectID(), userID, time.Now().Add(8*24*time.Hour)),
	}
	user := models.User{
		ID:                   userID,
		Email:                "owner@example.com",
		Phone:                "+919876543210",
		NotificationsEnabled: true,
	}
	mailer := &countingMailer{}
	sms := &countingSMS{}

	s := newScheduler(buildDB(t, docs, user), mailer, sms, 10)
	s.ScanExpiringDocuments()

	if mailer.sent != 2 {
		t.Errorf("expected 2 reminder emails, got %d", mailer.sent)
	}
	if sms.sent != 2 {
		t.Errorf("expected 2 reminder sms, got %d", sms.sent)
	}
}

func TestScanExpiringDocumentsFailureIsolation(t *testing.T) {
	userID := primitive.NewObjectID()
	badVehicleID := primitive.NewObjectID()
	goodVehicleID := primitive.NewObjectID()
	docs := []models.Document{
		expiringDocument(badVehicleID, userID, time.Now().Add(3*24*time.Hour)),
		expiringDocument(goodVehicleID, userID, time.Now().Add(3*24*time.Hour)),
	}
	user := models.User{ID: userID, Email: "owner@example.com", NotificationsEnabled: true}

	db := &mocks.DatabaseHelper{}

	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Document)
		*arg = docs
	})
	docsConn := &mocks.CollectionHelper{}
	docsConn.On("Find", mock.Anything, mock.Anything).Return(cursor)
	db.On("Collection", "documents").Return(docsConn)

	failResult := &mocks.SingleResultHelper{}
	failResult.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	goodResult := &mocks.SingleResultHelper{}
	goodResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Vehicle)
		**arg = models.Vehicle{ID: goodVehicleID, Name: "Truck", VehicleNumber: "KA02CD5678"}
	})
	vehiclesConn := &mocks.CollectionHelper{}
	vehiclesConn.On("FindOne", mock.Anything, bson.M{"_id": badVehicleID}).Return(failResult)
	vehiclesConn.On("FindOne", mock.Anything, bson.M{"_id": goodVehicleID}).Return(goodResult)
	db.On("Collection", "vehicles").Return(vehiclesConn)

	userResult := &mocks.SingleResultHelper{}
	userResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = user
	})
	usersConn := &mocks.CollectionHelper{}
	usersConn.On("FindOne", mock.Anything, mock.Anything).Return(userResult)
	db.On("Collection", "users").Return(usersConn)

	mailer := &countingMailer{}
	sms := &countingSMS{}
	s := newScheduler(db, mailer, sms, 10)
	s.ScanExpiringDocuments()

	// the broken vehicle lookup must not stop the sweep
	if mailer.sent != 1 {
		t.Errorf("expected 1 reminder email after skipping broken document, got %d", mailer.sent)
	}
}

func TestScanExpiringDocumentsRunsAreIndependent(t *testing.T) {
	userID := primitive.NewObjectID()
	docs := []models.Document{
		expiringDocument(primitive.NewObjectID(), userID, time.Now().Add(3*24*time.Hour)),
	}
	user := models.User{ID: userID, Email: "owner@example.com", NotificationsEnabled: true}
	mailer := &countingMailer{}
	sms := &countingSMS{}

	s := newScheduler(buildDB(t, docs, user), mailer, sms, 10)

	// nothing tracks what was already sent, so a second sweep sends again
	s.ScanExpiringDocuments()
	s.ScanExpiringDocuments()

	if mailer.sent != 2 {
		t.Errorf("expected each sweep to send independently, got %d emails", mailer.sent)
	}
}

func TestScanExpiringDocumentsQueryFollowsPolicyWindow(t *testing.T) {
	db := &mocks.DatabaseHelper{}

	var captured bson.M
	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil)
	docsConn := &mocks.CollectionHelper{}
	docsConn.On("Find", mock.Anything, mock.Anything).Return(cursor).Run(func(args mock.Arguments) {
		captured = args.Get(1).(bson.M)
	})
	db.On("Collection", "documents").Return(docsConn)

	s := newScheduler(db, &countingMailer{}, &countingSMS{}, 3)
	before := time.Now()
	s.ScanExpiringDocuments()

	if captured == nil {
		t.Fatal("expected a documents query to be issued")
	}
	bounds := captured["endDate"].(bson.M)
	upper := bounds["$lte"].(primitive.DateTime).Time()

	// the candidate window must track the notifier's policy (3 days + 1 day pad)
	expected := before.Add(4 * 24 * time.Hour)
	if upper.Before(expected.Add(-time.Minute)) || upper.After(expected.Add(time.Minute)) {
		t.Errorf("query upper bound %v does not follow the policy window, expected about %v", upper, expected)
	}
}

func TestScanExpiringDocumentsSkipsDisabledUsers(t *testing.T) {
	userID := primitive.NewObjectID()
	docs := []models.Document{
		expiringDocument(primitive.NewObjectID(), userID, time.Now().Add(3*24*time.Hour)),
	}
	user := models.User{ID: userID, Email: "owner@example.com", NotificationsEnabled: false}
	mailer := &countingMailer{}
	sms := &countingSMS{}

	s := newScheduler(buildDB(t, docs, user), mailer, sms, 10)
	s.ScanExpiringDocuments()

	if mailer.sent != 0 || sms.sent != 0 {
		t.Errorf("expected no reminders for a user who disabled notifications, got %d emails and %d sms", mailer.sent, sms.sent)
	}
}
