package notifications

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// renewalTokenTTL bounds how long an emailed renewal link stays valid
const renewalTokenTTL = 30 * 24 * time.Hour

// RenewalToken mints a signed token identifying the document a renewal link
// points at
func RenewalToken(documentID, secret string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   documentID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(renewalTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseRenewalToken validates a renewal token and returns the document id it
// was minted for
func ParseRenewalToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("renewal token has no subject")
	}
	return claims.Subject, nil
}

// RenewalLink builds the user-facing renewal URL embedded in reminder emails
func RenewalLink(baseURL, documentID, secret string, now time.Time) string {
	token, err := RenewalToken(documentID, secret, now)
	if err != nil {
		// fall back to the plain document page if signing fails
		return fmt.Sprintf("%s/documents/%s", baseURL, documentID)
	}
	return fmt.Sprintf("%s/documents/renew?token=%s", baseURL, token)
}
