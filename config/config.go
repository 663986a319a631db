package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/logging"
	"github.com/fleetdocs/fleetdocs-api/models"
)

// DefaultExpiryWindowDays is used when EXPIRY_WINDOW_DAYS is unset or
// unparseable. Documents expiring within this many days trigger reminders.
const DefaultExpiryWindowDays = 10

// DefaultScanCronSpec runs the expiry scan once a day at 06:00 UTC
const DefaultScanCronSpec = "0 6 * * *"

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	SendgridAPIKey string
	MailFromName   string
	MailFromAddr   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	ExpiryWindowDays int
	ScanCronSpec     string
	JWTSecret        string
}

// New sets up all config related services
func New() *Config {

	// setup zap logger and replace default logger
	logger := logging.New(os.Getenv("APP_ENV"))
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFromName:   os.Getenv("MAIL_FROM_NAME"),
		MailFromAddr:   os.Getenv("MAIL_FROM_ADDR"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		ExpiryWindowDays: intEnv("EXPIRY_WINDOW_DAYS", DefaultExpiryWindowDays),
		ScanCronSpec:     stringEnv("SCAN_CRON_SPEC", DefaultScanCronSpec),
		JWTSecret:        os.Getenv("JWT_SECRET"),
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		zap.S().Warnw("invalid integer env value, using fallback",
			"key", key,
			"value", v,
			"fallback", fallback,
		)
		return fallback
	}
	return n
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: err.Error()},
	})
	w.Write(b)
}
