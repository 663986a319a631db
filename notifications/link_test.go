package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenewalTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := RenewalToken("608cafe595eb9dc05379b7f4", "secret", now)
	assert.NoError(t, err)

	docID, err := ParseRenewalToken(token, "secret")
	assert.NoError(t, err)
	assert.Equal(t, "608cafe595eb9dc05379b7f4", docID)
}

func TestParseRenewalTokenWrongSecret(t *testing.T) {
	token, err := RenewalToken("608cafe595eb9dc05379b7f4", "secret", time.Now())
	assert.NoError(t, err)

	_, err = ParseRenewalToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseRenewalTokenExpired(t *testing.T) {
	minted := time.Now().Add(-60 * 24 * time.Hour)
	token, err := RenewalToken("608cafe595eb9dc05379b7f4", "secret", minted)
	assert.NoError(t, err)

	_, err = ParseRenewalToken(token, "secret")
	assert.Error(t, err)
}

func TestParseRenewalTokenGarbage(t *testing.T) {
	_, err := ParseRenewalToken("not-a-token", "secret")
	assert.Error(t, err)
}

func TestRenewalLinkShape(t *testing.T) {
	link := RenewalLink("https://fleetdocs.app", "608cafe595eb9dc05379b7f4", "secret", time.Now())
	assert.Contains(t, link, "https://fleetdocs.app/documents/renew?token=")
}
