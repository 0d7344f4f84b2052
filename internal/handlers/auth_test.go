package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potatochat/admin-backend/internal/services"
)

// initTestHandlers wires only the token service; the tests below exercise
// validation paths that return before any store access.
func initTestHandlers(t *testing.T) {
	t.Helper()
	Init(nil, nil, nil, services.NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour), nil)
	t.Cleanup(func() { Init(nil, nil, nil, nil, nil) })
}

func postJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterInvalidBody(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(Register, "/api/auth/register", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestRegisterValidationDetails(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(Register, "/api/auth/register",
		`{"username":"a!","email":"nope","password":"123","firstName":"","lastName":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Input validation failed", body["message"])

	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 5)

	fields := make([]string, 0, len(details))
	for _, d := range details {
		entry := d.(map[string]interface{})
		fields = append(fields, entry["field"].(string))
	}
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginMissingFields(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(Login, "/api/auth/login", `{"login":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login and password are required")

	rec = postJSON(Login, "/api/auth/login", `{"login":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshTokenMissing(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(RefreshToken, "/api/auth/refresh-token", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing refresh token")
}

func TestRefreshTokenMalformed(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(RefreshToken, "/api/auth/refresh-token", `{"refreshToken":"not.a.jwt"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired refresh token")
}

func TestRefreshTokenExpired(t *testing.T) {
	initTestHandlers(t)

	expired := services.NewTokenService("test-secret", -time.Minute, -time.Minute)
	pair, err := expired.IssuePair("user-1")
	require.NoError(t, err)

	rec := postJSON(RefreshToken, "/api/auth/refresh-token", `{"refreshToken":"`+pair.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetPasswordRejectsShortPasswordBeforeTokenLookup(t *testing.T) {
	initTestHandlers(t)

	// userService is nil here, so reaching the store would panic: the
	// length check must run first.
	rec := postJSON(ResetPassword, "/api/auth/reset-password", `{"token":"sometoken","password":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 6 characters")
}

func TestResetPasswordMissingFields(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(ResetPassword, "/api/auth/reset-password", `{"token":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token and password are required")
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(ForgotPassword, "/api/auth/forgot-password", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is required")
}

func TestVerifyEmailMissingToken(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(VerifyEmail, "/api/auth/verify-email", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing verification token")
}

func TestLogoutIsStateless(t *testing.T) {
	initTestHandlers(t)

	rec := postJSON(Logout, "/api/auth/logout", ``)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Logged out successfully", body["message"])
}

func TestGetMeWithoutContextUser(t *testing.T) {
	initTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	GetMe(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
