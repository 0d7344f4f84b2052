package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/potatochat/admin-backend/internal/middleware"
	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
	"github.com/potatochat/admin-backend/pkg/clientip"
	"github.com/potatochat/admin-backend/pkg/utils"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Login    string `json:"login"` // username or email
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse is the envelope for register/login/refresh responses.
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
	Tokens  *services.TokenPair    `json:"tokens,omitempty"`
}

// Register handles new account creation.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	var details []map[string]string
	for _, err := range []error{
		utils.ValidateUsername(req.Username),
		utils.ValidateEmail(req.Email),
		utils.ValidatePassword(req.Password),
		utils.ValidateName("firstName", req.FirstName),
		utils.ValidateName("lastName", req.LastName),
	} {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			details = append(details, map[string]string{"field": ve.Field, "message": ve.Message})
		}
	}
	if len(details) > 0 {
		respondValidationErrors(w, details)
		return
	}

	profile := models.Profile{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	user, err := userService.Create(r.Context(), req.Username, req.Email, req.Password, profile)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateEmail):
			respondError(w, http.StatusConflict, "Email is already registered")
		case errors.Is(err, services.ErrDuplicateUsername):
			respondError(w, http.StatusConflict, "Username is already taken")
		default:
			log.Printf("ERROR: register: %v", err)
			respondError(w, http.StatusInternalServerError, "Registration failed, please try again later")
		}
		return
	}

	// Verification mail is best-effort: registration is already committed.
	if token, err := userService.IssueEmailVerificationToken(r.Context(), user.ID); err != nil {
		log.Printf("WARNING: issuing email verification token for %s: %v", user.Username, err)
	} else if err := emailService.SendVerificationEmail(user.Email, user.FullName(), token); err != nil {
		log.Printf("WARNING: sending verification email to %s: %v", user.Email, err)
	}

	tokens, err := tokenService.IssuePair(user.ID.Hex())
	if err != nil {
		log.Printf("ERROR: issuing tokens: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed, please try again later")
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Registration successful",
		User:    user.Summary(),
		Tokens:  tokens,
	})
}

// Login handles sign-in with username or email.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	user, err := userService.FindByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Same message as a wrong password so accounts can't be enumerated.
			respondError(w, http.StatusUnauthorized, "Invalid login or password")
		} else {
			log.Printf("ERROR: login lookup: %v", err)
			respondError(w, http.StatusInternalServerError, "Login failed, please try again later")
		}
		return
	}

	now := time.Now()
	if user.IsLocked(now) {
		respondError(w, http.StatusLocked, "Account is locked, please try again later")
		return
	}

	switch user.Account.Status {
	case models.StatusBanned:
		respondError(w, http.StatusForbidden, "Account has been banned")
		return
	case models.StatusSuspended:
		respondError(w, http.StatusForbidden, "Account has been suspended")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		if err := userService.ApplyLoginFailure(r.Context(), user); err != nil {
			log.Printf("WARNING: recording login failure for %s: %v", user.Username, err)
		}
		respondError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	if user.Security.LoginAttempts > 0 || user.Security.LockUntil != nil {
		if err := userService.ResetLockout(r.Context(), user.ID); err != nil {
			log.Printf("WARNING: resetting lockout for %s: %v", user.Username, err)
		}
	}

	if err := userService.ApplyLoginSuccess(r.Context(), user, clientip.RealClientIP(r), r.UserAgent()); err != nil {
		log.Printf("WARNING: recording login activity for %s: %v", user.Username, err)
	}

	tokens, err := tokenService.IssuePair(user.ID.Hex())
	if err != nil {
		log.Printf("ERROR: issuing tokens: %v", err)
		respondError(w, http.StatusInternalServerError, "Login failed, please try again later")
		return
	}

	summary := user.Summary()
	summary["lastLogin"] = user.Activity.LastLogin

	respondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    summary,
		Tokens:  tokens,
	})
}

// RefreshToken exchanges a refresh token for a new token pair.
// The prior refresh token stays valid until its own expiry.
func RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		respondError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	userID, err := tokenService.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	user, err := userService.FindByID(r.Context(), userID)
	if err != nil || user.Account.Status != models.StatusActive {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	tokens, err := tokenService.IssuePair(user.ID.Hex())
	if err != nil {
		log.Printf("ERROR: issuing tokens: %v", err)
		respondError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Token refreshed",
		Tokens:  tokens,
	})
}

// VerifyEmail consumes an email verification token.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "Missing verification token")
		return
	}

	if _, err := userService.ConsumeEmailVerificationToken(r.Context(), req.Token); err != nil {
		if errors.Is(err, services.ErrTokenInvalidOrExpired) {
			respondError(w, http.StatusBadRequest, "Verification token is invalid or expired")
		} else {
			log.Printf("ERROR: verify email: %v", err)
			respondError(w, http.StatusInternalServerError, "Email verification failed")
		}
		return
	}

	respondMessage(w, http.StatusOK, "Email verified successfully")
}

// ForgotPassword issues a reset token when the email is registered. The
// response is identical either way so addresses can't be enumerated.
func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	const reply = "If this email is registered, you will receive a password reset email"

	user, err := userService.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			log.Printf("ERROR: forgot password lookup: %v", err)
		}
		respondMessage(w, http.StatusOK, reply)
		return
	}

	if token, err := userService.IssuePasswordResetToken(r.Context(), user.ID); err != nil {
		log.Printf("ERROR: issuing password reset token for %s: %v", user.Username, err)
	} else if err := emailService.SendPasswordResetEmail(user.Email, user.FullName(), token); err != nil {
		log.Printf("WARNING: sending password reset email to %s: %v", user.Email, err)
	}

	respondMessage(w, http.StatusOK, reply)
}

// ResetPassword consumes a reset token and sets a new password.
// The length check runs before the store is touched.
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Token and password are required")
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := userService.ConsumePasswordResetToken(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, services.ErrTokenInvalidOrExpired) {
			respondError(w, http.StatusBadRequest, "Reset token is invalid or expired")
		} else {
			log.Printf("ERROR: reset password: %v", err)
			respondError(w, http.StatusInternalServerError, "Password reset failed")
		}
		return
	}

	respondMessage(w, http.StatusOK, "Password reset successfully")
}

// Logout is stateless: tokens are not persisted server-side, so there is
// nothing to invalidate. Clients drop their stored pair.
func Logout(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// GetMe returns the authenticated user's full profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r)
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user.Detail(),
	})
}
