package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetdocs/fleetdocs-api/api"
	"github.com/fleetdocs/fleetdocs-api/config"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/models"
)

// User exposes the user account endpoints
type User struct {
	DB     databases.UserDatabase
	LogDB  databases.LogDatabase
	Issuer *CodeIssuer
}

var phoneDigits = regexp.MustCompile(`^[0-9]{10}$`)

// normalizePhone strips spaces and an optional +91 prefix, then requires a
// plain 10-digit number. The stored form always carries the +91 prefix.
func normalizePhone(phone string) (string, error) {
	p := strings.ReplaceAll(phone, " ", "")
	p = strings.TrimPrefix(p, "+91")
	if !phoneDigits.MatchString(p) {
		return "", fmt.Errorf("phone number must be 10 digits")
	}
	return "+91" + p, nil
}

// UserCreateHandler registers a new account
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	requestBody.Username = strings.TrimSpace(requestBody.Username)
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	if requestBody.Username == "" || requestBody.Email == "" || requestBody.Password == "" {
		config.ErrorStatus("username, email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if !strings.Contains(requestBody.Email, "@") {
		config.ErrorStatus("invalid email address", http.StatusBadRequest, w, fmt.Errorf("email missing @"))
		return
	}
	if len(requestBody.Password) < 8 {
		config.ErrorStatus("password must be at least 8 characters", http.StatusBadRequest, w, fmt.Errorf("password too short"))
		return
	}

	phone := ""
	if requestBody.Phone != "" {
		var err error
		phone, err = normalizePhone(requestBody.Phone)
		if err != nil {
			config.ErrorStatus("invalid phone number", http.StatusBadRequest, w, err)
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": requestBody.Email},
		{"username": requestBody.Username},
	}})
	if err != nil {
		config.ErrorStatus("failed to check for existing account", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("an account with that email or username already exists", http.StatusConflict, w, fmt.Errorf("duplicate account"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:                   primitive.NewObjectID(),
		Username:             requestBody.Username,
		Email:                requestBody.Email,
		Phone:                phone,
		Password:             string(hash),
		NotificationsEnabled: true,
		Privacy:              models.PrivacyPublic,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(u.LogDB, user.ID.Hex(), "registered an account")

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// PasswordRecoveryHandler mails a reset code to the account matching the
// given email. The response does not reveal whether the account exists.
func (u User) PasswordRecoveryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email string `json:"email"`
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

	user, err := u.DB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err == nil {
		if err := u.Issuer.Issue(ctx, *user, models.CodePurposePasswordReset, "email"); err != nil {
			zap.S().Errorw("failed to issue password reset code", "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "If the account exists, a reset code has been sent",
	})
}

// PasswordResetHandler sets a new password after verifying the reset code
func (u User) PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))
	if len(requestBody.NewPassword) < 8 {
		config.ErrorStatus("password must be at least 8 characters", http.StatusBadRequest, w, fmt.Errorf("password too short"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("invalid code", http.StatusUnauthorized, w, fmt.Errorf("no matching account"))
		return
	}

	if err := u.Issuer.Verify(ctx, user.ID.Hex(), models.CodePurposePasswordReset, requestBody.Code); err != nil {
		config.ErrorStatus("invalid code", http.StatusUnauthorized, w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	err = u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"password":  string(hash),
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to update password", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(u.LogDB, user.ID.Hex(), "reset their password")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "password updated",
	})
}

// UserSelfHandler returns the authenticated user's account
func (u User) UserSelfHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(api.UserIDFromRequest(r))
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdatePasswordHandler changes the password after checking the current one
func (u User) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(requestBody.NewPassword) < 8 {
		config.ErrorStatus("password must be at least 8 characters", http.StatusBadRequest, w, fmt.Errorf("password too short"))
		return
	}

	userID, err := primitive.ObjectIDFromHex(api.UserIDFromRequest(r))
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(requestBody.CurrentPassword)); err != nil {
		config.ErrorStatus("current password is incorrect", http.StatusUnauthorized, w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	err = u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"password":  string(hash),
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to update password", http.StatusInternalServerError, w, err)
		return
	}

	recordLog(u.LogDB, user.ID.Hex(), "changed their password")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "password updated",
	})
}

// UpdatePreferencesHandler updates profile and notification settings. Only
// the fields present in the request body are touched.
func (u User) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Username             *string `json:"username"`
		Phone                *string `json:"phone"`
		ProfilePhoto         *string `json:"profilePhoto"`
		NotificationsEnabled *bool   `json:"notificationsEnabled"`
		Privacy              *string `json:"privacy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	userID, err := primitive.ObjectIDFromHex(api.UserIDFromRequest(r))
	if err != nil {
		config.ErrorStatus("failed to get objectID from hex", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if requestBody.Username != nil {
		username := strings.TrimSpace(*requestBody.Username)
		if username == "" {
			config.ErrorStatus("username cannot be empty", http.StatusBadRequest, w, fmt.Errorf("empty username"))
			return
		}
		set["username"] = username
	}
	if requestBody.Phone != nil {
		phone := ""
		if *requestBody.Phone != "" {
			phone, err = normalizePhone(*requestBody.Phone)
			if err != nil {
				config.ErrorStatus("invalid phone number", http.StatusBadRequest, w, err)
				return
			}
		}
		set["phone"] = phone
	}
	if requestBody.ProfilePhoto != nil {
		set["profilePhoto"] = *requestBody.ProfilePhoto
	}
	if requestBody.NotificationsEnabled != nil {
		set["notificationsEnabled"] = *requestBody.NotificationsEnabled
	}
	if requestBody.Privacy != nil {
		switch *requestBody.Privacy {
		case models.PrivacyPublic, models.PrivacyPrivate, models.PrivacyCustom:
			set["privacy"] = *requestBody.Privacy
		default:
			config.ErrorStatus("invalid privacy setting", http.StatusBadRequest, w, fmt.Errorf("unknown privacy value %q", *requestBody.Privacy))
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := u.DB.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update preferences", http.StatusInternalServerError, w, err)
		return
	}

	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	recordLog(u.LogDB, user.ID.Hex(), "updated their preferences")

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
