package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	os.Unsetenv("EXPIRY_WINDOW_DAYS")
	os.Unsetenv("SCAN_CRON_SPEC")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, DefaultExpiryWindowDays, conf.ExpiryWindowDays)
	assert.Equal(t, DefaultScanCronSpec, conf.ScanCronSpec)
}

func TestNewWindowOverride(t *testing.T) {
	os.Setenv("EXPIRY_WINDOW_DAYS", "30")
	defer os.Unsetenv("EXPIRY_WINDOW_DAYS")
	conf := New()

	assert.Equal(t, 30, conf.ExpiryWindowDays)
}

func TestNewWindowInvalidFallsBack(t *testing.T) {
	os.Setenv("EXPIRY_WINDOW_DAYS", "soon")
	defer os.Unsetenv("EXPIRY_WINDOW_DAYS")
	conf := New()

	assert.Equal(t, DefaultExpiryWindowDays, conf.ExpiryWindowDays)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "error it borked")
	assert.Contains(t, rr.Body.String(), "bad request")
}
