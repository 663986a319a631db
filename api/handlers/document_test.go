package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetdocs/fleetdocs-api/api/handlers"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/databases/mocks"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
)

func TestDocument_CreateDocumentHandlerUnknownType(t *testing.T) {
	body := `{"vehicleID": "608cafe595eb9dc05379b7f4", "documentType": "Parking Pass", "serialNumber": "X1", "startDate": "2025-01-01", "endDate": "2026-01-01"}`
	req, err := http.NewRequest("POST", "/api/v1/document", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticated(req, primitive.NewObjectID().Hex())

	d := handlers.Document{DB: databases.NewDocumentDatabase(&MockDatabaseHelper{}), LogDB: stubLogDB{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CreateDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown document type")
}

func TestDocument_CreateDocumentHandlerBadDateFormat(t *testing.T) {
	body := `{"vehicleID": "608cafe595eb9dc05379b7f4", "documentType": "Insurance", "serialNumber": "X1", "startDate": "01/01/2025", "endDate": "2026-01-01"}`
	req, err := http.NewRequest("POST", "/api/v1/document", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticated(req, primitive.NewObjectID().Hex())

	d := handlers.Document{DB: databases.NewDocumentDatabase(&MockDatabaseHelper{}), LogDB: stubLogDB{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CreateDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid startDate")
}

func TestDocument_CreateDocumentHandlerEndBeforeStart(t *testing.T) {
	body := `{"vehicleID": "608cafe595eb9dc05379b7f4", "documentType": "Insurance", "serialNumber": "X1", "startDate": "2026-01-01", "endDate": "2025-01-01"}`
	req, err := http.NewRequest("POST", "/api/v1/document", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticated(req, primitive.NewObjectID().Hex())

	d := handlers.Document{DB: databases.NewDocumentDatabase(&MockDatabaseHelper{}), LogDB: stubLogDB{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CreateDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "endDate must be after startDate")
}

func TestDocument_CreateDocumentHandlerOtherUsersVehicle(t *testing.T) {
	vehicleID := primitive.NewObjectID()
	body := `{"vehicleID": "` + vehicleID.Hex() + `", "documentType": "Insurance", "serialNumber": "X1", "startDate": "2025-01-01", "endDate": "2026-01-01"}`
	req, err := http.NewRequest("POST", "/api/v1/document", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = authenticated(req, primitive.NewObjectID().Hex())

	db := &MockDatabaseHelper{}
	vehiclesConn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Vehicle)
		**arg = models.Vehicle{ID: vehicleID, Name: "Van", VehicleNumber: "KA01AB1234", UserID: primitive.NewObjectID().Hex()}
	})
	vehiclesConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "vehicles").Return(vehiclesConn)

	d := handlers.Document{
		DB:    databases.NewDocumentDatabase(db),
		VDB:   databases.NewVehicleDatabase(db),
		LogDB: stubLogDB{},
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CreateDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "vehicle belongs to another user")
}

func TestDocument_DocumentByIDHandlerOtherUsersDocument(t *testing.T) {
	documentID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/document/"+documentID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"document_id": documentID.Hex()})
	req = authenticated(req, primitive.NewObjectID().Hex())

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Document)
		**arg = models.Document{ID: documentID, DocumentType: models.DocumentTypeInsurance, UserID: primitive.NewObjectID().Hex()}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "documents").Return(conn)

	d := handlers.Document{DB: databases.NewDocumentDatabase(db), LogDB: stubLogDB{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DocumentByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "document belongs to another user")
}

func TestDocument_DeleteDocumentHandlerRejectsBadCode(t *testing.T) {
	documentID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/document/"+documentID.Hex(), strings.NewReader(`{"code": "000000"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"document_id": documentID.Hex()})
	req = authenticated(req, userID.Hex())

	db := &MockDatabaseHelper{}
	documentsConn := &mocks.CollectionHelper{}
	docResult := &mocks.SingleResultHelper{}
	docResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Document)
		**arg = models.Document{ID: documentID, DocumentType: models.DocumentTypeInsurance, UserID: userID.Hex()}
	})
	documentsConn.On("FindOne", mock.Anything, mock.Anything).Return(docResult)
	db.On("Collection", "documents").Return(documentsConn)

	codesConn := &mocks.CollectionHelper{}
	codeResult := &mocks.SingleResultHelper{}
	codeResult.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	codesConn.On("FindOne", mock.Anything, mock.Anything).Return(codeResult)
	db.On("Collection", "onetimecodes").Return(codesConn)

	d := handlers.Document{
		DB:     databases.NewDocumentDatabase(db),
		LogDB:  stubLogDB{},
		Issuer: &handlers.CodeIssuer{DB: databases.NewOneTimeCodeDatabase(db)},
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DeleteDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid code")
	documentsConn.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestDocument_DocumentByRenewalTokenHandlerInvalidToken(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/documents/renewal/garbage", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"token": "garbage"})

	d := handlers.Document{
		DB:       databases.NewDocumentDatabase(&MockDatabaseHelper{}),
		Notifier: &notifications.Notifier{LinkSecret: "test-secret"},
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DocumentByRenewalTokenHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid or expired renewal link")
}

func TestDocument_DocumentByRenewalTokenHandlerResolvesDocument(t *testing.T) {
	documentID := primitive.NewObjectID()
	token, err := notifications.RenewalToken(documentID.Hex(), "test-secret", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("GET", "/api/v1/documents/renewal/"+token, nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"token": token})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Document)
		**arg = models.Document{ID: documentID, DocumentType: models.DocumentTypeInsurance, SerialNumber: "POL-991"}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "documents").Return(conn)

	d := handlers.Document{
		DB:       databases.NewDocumentDatabase(db),
		Notifier: &notifications.Notifier{LinkSecret: "test-secret"},
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DocumentByRenewalTokenHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "POL-991")
}
