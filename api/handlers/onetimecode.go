package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
	"github.com/fleetdocs/fleetdocs-api/notifications"
	templates "github.com/fleetdocs/fleetdocs-api/templates/html"
)

// codeTTL is how long a one-time code stays valid after issue
const codeTTL = 10 * time.Minute

// CodeIssuer mints, delivers and verifies single-use 6-digit codes. Codes
// are scoped to a user and a purpose; issuing a new code invalidates any
// outstanding one for the same purpose.
type CodeIssuer struct {
	DB     databases.OneTimeCodeDatabase
	Mailer notifications.Mailer
	SMS    notifications.SMSSender
}

// Issue creates a fresh code for the user and delivers it over the requested
// channel ("email" or "sms")
func (ci *CodeIssuer) Issue(ctx context.Context, user models.User, purpose, channel string) error {
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))

	// a new code supersedes any outstanding one for the same purpose
	if err := ci.DB.DeleteMany(ctx, bson.M{"userID": user.ID.Hex(), "purpose": purpose}); err != nil {
		zap.S().Warnw("failed to clear previous one-time codes", "error", err)
	}

	_, err := ci.DB.InsertOne(ctx, models.OneTimeCode{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID.Hex(),
		Purpose:   purpose,
		Code:      code,
		Channel:   channel,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	})
	if err != nil {
		return err
	}

	switch channel {
	case "sms":
		if user.Phone == "" {
			return fmt.Errorf("user has no phone number on file")
		}
		_, err = ci.SMS.SendSMS(user.Phone, "FleetDocs verification code: "+code+". Valid for 10 minutes.")
	default:
		plainText := "Your verification code is: " + code + ". This code will expire in 10 minutes."
		err = ci.Mailer.SendEmail("Your FleetDocs Verification Code", []string{user.Email}, plainText, templates.RenderCode(code))
	}
	return err
}

// Verify consumes the code for the given user and purpose. The code is
// deleted whether or not it has expired; a second attempt always fails.
func (ci *CodeIssuer) Verify(ctx context.Context, userID, purpose, code string) error {
	otc, err := ci.DB.FindOne(ctx, bson.M{"userID": userID, "purpose": purpose, "code": code})
	if err != nil {
		return fmt.Errorf("invalid code")
	}

	if err := ci.DB.DeleteOne(ctx, bson.M{"_id": otc.ID}); err != nil {
		zap.S().Warnw("failed to delete consumed one-time code", "error", err)
	}

	if time.Since(otc.CreatedAt.Time()) > codeTTL {
		return fmt.Errorf("code expired")
	}
	return nil
}

// OneTimeCode exposes the passwordless login flow
type OneTimeCode struct {
	UDB    databases.UserDatabase
	Issuer *CodeIssuer
}

// RequestLoginCodeHandler issues a login code to the account matching the
// given email. The response is the same whether or not the account exists,
// so the endpoint cannot be used to probe for registered emails.
func (o OneTimeCode) RequestLoginCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email   string `json:"email"`
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))
	if requestBody.Email == "" {
		config.ErrorStatus("email is required", http.StatusBadRequest, w, fmt.Errorf("missing email"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := o.UDB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err == nil {
		if err := o.Issuer.Issue(ctx, *user, models.CodePurposeLogin, requestBody.Channel); err != nil {
			zap.S().Errorw("failed to issue login code", "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "If the account exists, a code has been sent",
	})
}

// VerifyLoginCodeHandler exchanges a valid login code for a bearer token
func (o OneTimeCode) VerifyLoginCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := o.UDB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("invalid code", http.StatusUnauthorized, w, fmt.Errorf("no matching account"))
		return
	}

	if err := o.Issuer.Verify(ctx, user.ID.Hex(), models.CodePurposeLogin, requestBody.Code); err != nil {
		config.ErrorStatus("invalid code", http.StatusUnauthorized, w, err)
		return
	}

	token := api.MintToken(user.Email, user.ID.Hex(), r)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"token": token,
		"_id":   user.ID.Hex(),
	})
}
