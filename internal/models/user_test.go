package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocked(t *testing.T) {
	now := time.Now()

	u := &User{}
	assert.False(t, u.IsLocked(now), "no lock set")

	future := now.Add(time.Hour)
	u.Security.LockUntil = &future
	assert.True(t, u.IsLocked(now), "lock in the future")

	// A lockUntil in the past is treated as unset.
	past := now.Add(-time.Minute)
	u.Security.LockUntil = &past
	assert.False(t, u.IsLocked(now), "expired lock")
}

func TestNextLoginFailureIncrements(t *testing.T) {
	now := time.Now()
	u := &User{}

	attempts, lockUntil := u.NextLoginFailure(now)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, lockUntil)

	u.Security.LoginAttempts = 3
	attempts, lockUntil = u.NextLoginFailure(now)
	assert.Equal(t, 4, attempts)
	assert.Nil(t, lockUntil)
}

func TestNextLoginFailureLocksAtThreshold(t *testing.T) {
	now := time.Now()
	u := &User{}
	u.Security.LoginAttempts = MaxLoginAttempts - 1

	attempts, lockUntil := u.NextLoginFailure(now)
	assert.Equal(t, MaxLoginAttempts, attempts)
	require.NotNil(t, lockUntil)
	assert.WithinDuration(t, now.Add(LockDuration), *lockUntil, time.Second)
}

func TestNextLoginFailureAfterExpiredLock(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Minute)
	u := &User{}
	u.Security.LoginAttempts = MaxLoginAttempts
	u.Security.LockUntil = &expired

	// An attempt after the lock expires restarts the counter at 1.
	attempts, lockUntil := u.NextLoginFailure(now)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, lockUntil)
}

func TestUserJSONNeverExposesSecrets(t *testing.T) {
	lock := time.Now().Add(time.Hour)
	u := &User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "$argon2id$v=19$m=65536,t=3,p=2$salt$hash",
	}
	u.Security.PasswordResetToken = "reset-token"
	u.Security.EmailVerificationToken = "verify-token"
	u.Security.LockUntil = &lock

	data, err := json.Marshal(u)
	require.NoError(t, err)

	s := string(data)
	assert.NotContains(t, s, "argon2id")
	assert.NotContains(t, s, "reset-token")
	assert.NotContains(t, s, "verify-token")
}

func TestSummaryOmitsSensitiveFields(t *testing.T) {
	u := &User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hash",
		Profile:  Profile{FirstName: "Alice", LastName: "Liddell"},
	}
	u.Account.Status = StatusActive

	summary := u.Summary()
	assert.Equal(t, "alice", summary["username"])
	assert.Equal(t, "Alice Liddell", summary["fullName"])
	_, hasPassword := summary["password"]
	assert.False(t, hasPassword)
}
