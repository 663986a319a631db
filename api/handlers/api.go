package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/api/scheduler"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
)

// App stores the router, db connection and scheduler, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	udb := databases.NewUserDatabase(a.dbHelper)
	vdb := databases.NewVehicleDatabase(a.dbHelper)
	ddb := databases.NewDocumentDatabase(a.dbHelper)
	odb := databases.NewOneTimeCodeDatabase(a.dbHelper)
	ldb := databases.NewLogDatabase(a.dbHelper)
	fdb := databases.NewFeedbackDatabase(a.dbHelper)

	notifier := a.newNotifier()
	issuer := &CodeIssuer{DB: odb, Mailer: notifier.Mailer, SMS: notifier.SMS}

	u := User{DB: udb, LogDB: ldb, Issuer: issuer}
	v := Vehicle{DB: vdb, DocDB: ddb, LogDB: ldb}
	d := Document{DB: ddb, VDB: vdb, UDB: udb, LogDB: ldb, Issuer: issuer, Notifier: notifier}
	otp := OneTimeCode{UDB: udb, Issuer: issuer}
	l := Log{DB: ldb}
	f := Feedback{DB: fdb}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/otp", http.HandlerFunc(otp.RequestLoginCodeHandler)).Methods("POST")
	apiCreate.Handle("/auth/otp/verify", http.HandlerFunc(otp.VerifyLoginCodeHandler)).Methods("POST")

	apiCreate.Handle("/user/register", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/password-recovery", http.HandlerFunc(u.PasswordRecoveryHandler)).Methods("POST")
	apiCreate.Handle("/user/password-reset", http.HandlerFunc(u.PasswordResetHandler)).Methods("POST")
	apiCreate.Handle("/user/me", api.Middleware(http.HandlerFunc(u.UserSelfHandler))).Methods("GET")
	apiCreate.Handle("/user/me/password", api.Middleware(http.HandlerFunc(u.UpdatePasswordHandler))).Methods("PUT")
	apiCreate.Handle("/user/me/preferences", api.Middleware(http.HandlerFunc(u.UpdatePreferencesHandler))).Methods("PUT")

	apiCreate.Handle("/vehicle", api.Middleware(http.HandlerFunc(v.CreateVehicleHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.VehicleByIDHandler))).Methods("GET")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.UpdateVehicleHandler))).Methods("PUT")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.DeleteVehicleHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/documents", api.Middleware(http.HandlerFunc(d.DocumentsByVehicleIDHandler))).Methods("GET")
	apiCreate.Handle("/vehicles", api.Middleware(http.HandlerFunc(v.VehiclesHandler))).Methods("GET")

	apiCreate.Handle("/document", api.Middleware(http.HandlerFunc(d.CreateDocumentHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}", api.Middleware(http.HandlerFunc(d.DocumentByIDHandler))).Methods("GET")
	apiCreate.Handle("/document/{document_id}", api.Middleware(http.HandlerFunc(d.UpdateDocumentHandler))).Methods("PUT")
	apiCreate.Handle("/document/{document_id}", api.Middleware(http.HandlerFunc(d.DeleteDocumentHandler))).Methods("DELETE")
	apiCreate.Handle("/document/{document_id}/renew", api.Middleware(http.HandlerFunc(d.RenewDocumentHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/delete-code", api.Middleware(http.HandlerFunc(d.RequestDeleteCodeHandler))).Methods("POST")
	apiCreate.Handle("/documents/renewal/{token}", http.HandlerFunc(d.DocumentByRenewalTokenHandler)).Methods("GET")

	apiCreate.Handle("/logs", api.Middleware(http.HandlerFunc(l.LogsHandler))).Methods("GET")
	apiCreate.Handle("/feedback", api.Middleware(http.HandlerFunc(f.CreateFeedbackHandler))).Methods("POST")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

func (a *App) newNotifier() *notifications.Notifier {
	return &notifications.Notifier{
		Policy: notifications.Policy{WindowDays: a.Config.ExpiryWindowDays},
		Mailer: notifications.SendgridMailer{
			APIKey:   a.Config.SendgridAPIKey,
			FromName: a.Config.MailFromName,
			FromAddr: a.Config.MailFromAddr,
		},
		SMS:        notifications.NewTwilioSender(a.Config.TwilioAccountSID, a.Config.TwilioAuthToken, a.Config.TwilioPhoneNumber),
		BaseURL:    a.Config.BaseURL,
		LinkSecret: a.Config.JWTSecret,
	}
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("fleetdocs-api has connected to the database")

	a.Scheduler = scheduler.New(
		databases.NewDocumentDatabase(a.dbHelper),
		databases.NewVehicleDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		a.newNotifier(),
		a.Config.ScanCronSpec,
	)

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
