package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
	"github.com/potatochat/admin-backend/pkg/utils"
)

// stubUserStore is an in-memory UserStore with the same single-use token and
// lockout semantics as the Mongo-backed store.
type stubUserStore struct {
	users        []*models.User
	verifyTokens map[string]primitive.ObjectID
	resetTokens  map[string]primitive.ObjectID
	lockResets   int
	tokenSeq     int
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	return &stubUserStore{
		users:        users,
		verifyTokens: make(map[string]primitive.ObjectID),
		resetTokens:  make(map[string]primitive.ObjectID),
	}
}

func (s *stubUserStore) byID(id primitive.ObjectID) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *stubUserStore) Create(context.Context, string, string, string, models.Profile) (*models.User, error) {
	return nil, errors.New("not supported")
}

func (s *stubUserStore) FindByLogin(_ context.Context, login string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == login || u.Email == utils.NormalizeEmail(login) {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == utils.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrUserNotFound
	}
	if u := s.byID(oid); u != nil {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (s *stubUserStore) ApplyLoginSuccess(context.Context, *models.User, string, string) error {
	return nil
}

func (s *stubUserStore) ApplyLoginFailure(_ context.Context, user *models.User) error {
	attempts, lockUntil := user.NextLoginFailure(time.Now())
	user.Security.LoginAttempts = attempts
	user.Security.LockUntil = lockUntil
	return nil
}

func (s *stubUserStore) ResetLockout(_ context.Context, userID primitive.ObjectID) error {
	if u := s.byID(userID); u != nil {
		u.Security.LoginAttempts = 0
		u.Security.LockUntil = nil
	}
	s.lockResets++
	return nil
}

func (s *stubUserStore) IssueEmailVerificationToken(_ context.Context, userID primitive.ObjectID) (string, error) {
	s.tokenSeq++
	token := fmt.Sprintf("verify-%d", s.tokenSeq)
	s.verifyTokens[token] = userID
	return token, nil
}

func (s *stubUserStore) ConsumeEmailVerificationToken(_ context.Context, token string) (*models.User, error) {
	oid, ok := s.verifyTokens[token]
	if !ok {
		return nil, services.ErrTokenInvalidOrExpired
	}
	delete(s.verifyTokens, token)
	u := s.byID(oid)
	if u == nil {
		return nil, services.ErrTokenInvalidOrExpired
	}
	u.Account.Verified.Email = true
	return u, nil
}

func (s *stubUserStore) IssuePasswordResetToken(_ context.Context, userID primitive.ObjectID) (string, error) {
	s.tokenSeq++
	token := fmt.Sprintf("reset-%d", s.tokenSeq)
	s.resetTokens[token] = userID
	return token, nil
}

func (s *stubUserStore) ConsumePasswordResetToken(_ context.Context, token, newRawPassword string) (*models.User, error) {
	oid, ok := s.resetTokens[token]
	if !ok {
		return nil, services.ErrTokenInvalidOrExpired
	}
	delete(s.resetTokens, token)
	u := s.byID(oid)
	if u == nil {
		return nil, services.ErrTokenInvalidOrExpired
	}
	hash, err := utils.HashPassword(newRawPassword)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	u.Security.LoginAttempts = 0
	u.Security.LockUntil = nil
	return u, nil
}

func (s *stubUserStore) List(context.Context, int, int, string) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUserStore) UpdateStatus(_ context.Context, userID primitive.ObjectID, status string) error {
	u := s.byID(userID)
	if u == nil {
		return services.ErrUserNotFound
	}
	u.Account.Status = status
	return nil
}

type stubEmailSender struct {
	verifySends int
	resetSends  int
}

func (s *stubEmailSender) SendVerificationEmail(to, name, token string) error {
	s.verifySends++
	return nil
}

func (s *stubEmailSender) SendPasswordResetEmail(to, name, token string) error {
	s.resetSends++
	return nil
}

func newStoredUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    email,
		Password: hash,
	}
	u.Account.Status = models.StatusActive
	u.Account.Level = models.LevelBasic
	return u
}

func initStubHandlers(t *testing.T, store *stubUserStore, sender *stubEmailSender) {
	t.Helper()
	Init(store, nil, nil, services.NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour), sender)
	t.Cleanup(func() { Init(nil, nil, nil, nil, nil) })
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	user := newStoredUser(t, "alice", "alice@example.com", "correct-password")
	store := newStubUserStore(user)
	initStubHandlers(t, store, &stubEmailSender{})

	for i := 1; i <= models.MaxLoginAttempts; i++ {
		rec := postJSON(Login, "/api/auth/login", `{"login":"alice","password":"wrong-password"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
		assert.Equal(t, i, user.Security.LoginAttempts)
	}
	require.NotNil(t, user.Security.LockUntil)

	// The next attempt is refused outright, even with the right password.
	rec := postJSON(Login, "/api/auth/login", `{"login":"alice","password":"correct-password"}`)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account is locked")
}

func TestLoginSucceedsAfterLockExpires(t *testing.T) {
	user := newStoredUser(t, "alice", "alice@example.com", "correct-password")
	expired := time.Now().Add(-time.Minute)
	user.Security.LoginAttempts = models.MaxLoginAttempts
	user.Security.LockUntil = &expired

	store := newStubUserStore(user)
	initStubHandlers(t, store, &stubEmailSender{})

	rec := postJSON(Login, "/api/auth/login", `{"login":"alice","password":"correct-password"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.lockResets)
}

func TestVerifyEmailTokenSingleUse(t *testing.T) {
	user := newStoredUser(t, "alice", "alice@example.com", "secret123")
	store := newStubUserStore(user)
	initStubHandlers(t, store, &stubEmailSender{})

	token, err := store.IssueEmailVerificationToken(context.Background(), user.ID)
	require.NoError(t, err)

	rec := postJSON(VerifyEmail, "/api/auth/verify-email", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, user.Account.Verified.Email)

	// A consumed token must not work a second time.
	rec = postJSON(VerifyEmail, "/api/auth/verify-email", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired")
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	user := newStoredUser(t, "alice", "alice@example.com", "old-password")
	store := newStubUserStore(user)
	initStubHandlers(t, store, &stubEmailSender{})

	token, err := store.IssuePasswordResetToken(context.Background(), user.ID)
	require.NoError(t, err)

	rec := postJSON(ResetPassword, "/api/auth/reset-password", `{"token":"`+token+`","password":"new-password"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	ok, err := utils.VerifyPassword("new-password", user.Password)
	require.NoError(t, err)
	assert.True(t, ok)

	rec = postJSON(ResetPassword, "/api/auth/reset-password", `{"token":"`+token+`","password":"another-password"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired")
}

func TestForgotPasswordUniformResponse(t *testing.T) {
	user := newStoredUser(t, "alice", "alice@example.com", "secret123")
	store := newStubUserStore(user)
	sender := &stubEmailSender{}
	initStubHandlers(t, store, sender)

	known := postJSON(ForgotPassword, "/api/auth/forgot-password", `{"email":"alice@example.com"}`)
	unknown := postJSON(ForgotPassword, "/api/auth/forgot-password", `{"email":"nobody@example.com"}`)

	// Identical status and body either way, so addresses can't be enumerated.
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	// Only the registered address actually got a reset mail.
	assert.Equal(t, 1, sender.resetSends)
	assert.Len(t, store.resetTokens, 1)
}
