package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account status values. Only active accounts pass the auth middleware.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// Account levels. Admin routes require LevelAdmin.
const (
	LevelBasic      = "basic"
	LevelPremium    = "premium"
	LevelVIP        = "vip"
	LevelEnterprise = "enterprise"
	LevelAdmin      = "admin"
)

const (
	// MaxLoginAttempts is the number of consecutive failures that locks an account.
	MaxLoginAttempts = 5
	// LockDuration is how long an account stays locked after too many failures.
	LockDuration = 2 * time.Hour
	// MaxIPRecords caps the per-account login activity log.
	MaxIPRecords = 10
)

type Profile struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio       string `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Verified struct {
	Email    bool `bson:"email" json:"email"`
	Phone    bool `bson:"phone" json:"phone"`
	Identity bool `bson:"identity" json:"identity"`
}

type AccountInfo struct {
	Status   string   `bson:"status" json:"status"`
	Level    string   `bson:"level" json:"level"`
	Verified Verified `bson:"verified" json:"verified"`
}

// SecurityInfo carries lockout counters and single-use tokens.
// Never serialized to clients.
type SecurityInfo struct {
	LoginAttempts            int        `bson:"loginAttempts" json:"-"`
	LockUntil                *time.Time `bson:"lockUntil,omitempty" json:"-"`
	PasswordResetToken       string     `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires     *time.Time `bson:"passwordResetExpires,omitempty" json:"-"`
	EmailVerificationToken   string     `bson:"emailVerificationToken,omitempty" json:"-"`
	EmailVerificationExpires *time.Time `bson:"emailVerificationExpires,omitempty" json:"-"`
}

type IPRecord struct {
	IP        string    `bson:"ip" json:"ip"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	UserAgent string    `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
}

type ActivityInfo struct {
	LastLogin   *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LastActive  *time.Time `bson:"lastActive,omitempty" json:"lastActive,omitempty"`
	LoginCount  int        `bson:"loginCount" json:"loginCount"`
	IPAddresses []IPRecord `bson:"ipAddresses,omitempty" json:"-"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Argon2id hash, never the raw value

	Profile  Profile      `bson:"profile" json:"profile"`
	Account  AccountInfo  `bson:"account" json:"account"`
	Security SecurityInfo `bson:"security" json:"-"`
	Activity ActivityInfo `bson:"activity" json:"activity"`
}

// FullName joins the profile names for display and email greetings.
func (u *User) FullName() string {
	return u.Profile.FirstName + " " + u.Profile.LastName
}

// IsLocked reports whether the account is currently locked.
// A lockUntil in the past is treated as unset.
func (u *User) IsLocked(now time.Time) bool {
	return u.Security.LockUntil != nil && u.Security.LockUntil.After(now)
}

// NextLoginFailure computes the lockout state after one more failed login.
// An expired lock resets the counter to 1 instead of incrementing past the
// threshold; reaching MaxLoginAttempts sets a lock LockDuration from now.
func (u *User) NextLoginFailure(now time.Time) (attempts int, lockUntil *time.Time) {
	if u.Security.LockUntil != nil && !u.Security.LockUntil.After(now) {
		return 1, nil
	}
	attempts = u.Security.LoginAttempts + 1
	lockUntil = u.Security.LockUntil
	if attempts >= MaxLoginAttempts && !u.IsLocked(now) {
		t := now.Add(LockDuration)
		lockUntil = &t
	}
	return attempts, lockUntil
}

// Summary returns the compact user payload used by register/login responses.
func (u *User) Summary() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID.Hex(),
		"username": u.Username,
		"email":    u.Email,
		"fullName": u.FullName(),
		"status":   u.Account.Status,
		"level":    u.Account.Level,
		"verified": u.Account.Verified,
	}
}

// Detail returns the full user payload for /me.
func (u *User) Detail() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID.Hex(),
		"username": u.Username,
		"email":    u.Email,
		"profile":  u.Profile,
		"account":  u.Account,
		"activity": map[string]interface{}{
			"lastLogin":  u.Activity.LastLogin,
			"lastActive": u.Activity.LastActive,
			"loginCount": u.Activity.LoginCount,
		},
		"createdAt": u.CreatedAt,
	}
}
