package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/pkg/utils"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrTokenInvalidOrExpired = errors.New("token invalid or expired")
)

const (
	emailVerificationTTL = 24 * time.Hour
	passwordResetTTL     = time.Hour
)

// UserService is the credential store: typed access to the users collection.
// All mutations are single-document atomic updates; there are no
// multi-document transactions in these flows.
type UserService struct {
	col *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{col: db.Collection("users")}
}

// EnsureIndexes creates the unique identity indexes and the common query indexes.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "account.status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}

// Create registers a new account. The raw password is hashed before the
// document is written; the raw value is never stored. Duplicate identity is
// reported as ErrDuplicateEmail or ErrDuplicateUsername so the handler can
// tell the caller which field collided.
func (s *UserService) Create(ctx context.Context, username, email, rawPassword string, profile models.Profile) (*models.User, error) {
	email = utils.NormalizeEmail(email)

	var existing models.User
	err := s.col.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}}).Decode(&existing)
	if err == nil {
		if existing.Email == email {
			return nil, ErrDuplicateEmail
		}
		return nil, ErrDuplicateUsername
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hashed, err := utils.HashPassword(rawPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Username:  username,
		Email:     email,
		Password:  hashed,
		Profile:   profile,
		Account: models.AccountInfo{
			Status: models.StatusActive,
			Level:  models.LevelBasic,
		},
	}

	if _, err := s.col.InsertOne(ctx, user); err != nil {
		// The unique index can still fire under concurrent registration.
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeySentinel(err)
		}
		return nil, err
	}
	return user, nil
}

// duplicateKeySentinel maps a unique-index violation to the field that
// collided. The driver error message carries the index name (email_1 or
// username_1).
func duplicateKeySentinel(err error) error {
	if strings.Contains(err.Error(), "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// FindByLogin looks up an account by username or lowercase email.
func (s *UserService) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": utils.NormalizeEmail(login)},
		bson.M{"username": login},
	}})
}

// FindByEmail looks up an account by lowercase email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": utils.NormalizeEmail(email)})
}

// FindByID looks up an account by its hex object ID.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserService) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ApplyLoginSuccess records login activity: timestamps, counter and the
// capped activity log (oldest entries evicted past models.MaxIPRecords).
func (s *UserService) ApplyLoginSuccess(ctx context.Context, user *models.User, ip, userAgent string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"activity.lastLogin":  now,
			"activity.lastActive": now,
			"updatedAt":           now,
		},
		"$inc": bson.M{"activity.loginCount": 1},
	}
	if ip != "" {
		update["$push"] = bson.M{
			"activity.ipAddresses": bson.M{
				"$each":  bson.A{models.IPRecord{IP: ip, Timestamp: now, UserAgent: userAgent}},
				"$slice": -models.MaxIPRecords,
			},
		}
	}
	_, err := s.col.UpdateByID(ctx, user.ID, update)
	return err
}

// ApplyLoginFailure advances the lockout state machine after a failed
// password check. Expiry is lazy: an expired lock is cleared here rather
// than by a background sweep.
func (s *UserService) ApplyLoginFailure(ctx context.Context, user *models.User) error {
	attempts, lockUntil := user.NextLoginFailure(time.Now())
	set := bson.M{
		"security.loginAttempts": attempts,
		"updatedAt":              time.Now(),
	}
	update := bson.M{"$set": set}
	if lockUntil != nil {
		set["security.lockUntil"] = *lockUntil
	} else {
		update["$unset"] = bson.M{"security.lockUntil": 1}
	}
	_, err := s.col.UpdateByID(ctx, user.ID, update)
	return err
}

// ResetLockout clears the failure counter and any lock.
func (s *UserService) ResetLockout(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.col.UpdateByID(ctx, userID, bson.M{
		"$set":   bson.M{"security.loginAttempts": 0, "updatedAt": time.Now()},
		"$unset": bson.M{"security.lockUntil": 1},
	})
	return err
}

// IssueEmailVerificationToken stores a fresh 24h verification token,
// overwriting any prior one, and returns the opaque token.
func (s *UserService) IssueEmailVerificationToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	_, err = s.col.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"security.emailVerificationToken":   token,
		"security.emailVerificationExpires": time.Now().Add(emailVerificationTTL),
		"updatedAt":                         time.Now(),
	}})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeEmailVerificationToken marks the email verified and clears the token
// in one atomic update, so a token can never be consumed twice.
func (s *UserService) ConsumeEmailVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{
			"security.emailVerificationToken":   token,
			"security.emailVerificationExpires": bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set": bson.M{"account.verified.email": true, "updatedAt": time.Now()},
			"$unset": bson.M{
				"security.emailVerificationToken":   1,
				"security.emailVerificationExpires": 1,
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, err
	}
	return &user, nil
}

// IssuePasswordResetToken stores a fresh 1h reset token and returns it.
func (s *UserService) IssuePasswordResetToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	_, err = s.col.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"security.passwordResetToken":   token,
		"security.passwordResetExpires": time.Now().Add(passwordResetTTL),
		"updatedAt":                     time.Now(),
	}})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ConsumePasswordResetToken replaces the password hash, clears the reset
// token and resets the lockout state, atomically against the token match.
func (s *UserService) ConsumePasswordResetToken(ctx context.Context, token, newRawPassword string) (*models.User, error) {
	hashed, err := utils.HashPassword(newRawPassword)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{
			"security.passwordResetToken":   token,
			"security.passwordResetExpires": bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set": bson.M{
				"password":               hashed,
				"security.loginAttempts": 0,
				"updatedAt":              time.Now(),
			},
			"$unset": bson.M{
				"security.passwordResetToken":   1,
				"security.passwordResetExpires": 1,
				"security.lockUntil":            1,
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, err
	}
	return &user, nil
}

// List returns a page of users for the admin dashboard, newest first.
// status filters on account.status when non-empty.
func (s *UserService) List(ctx context.Context, page, limit int, status string) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := bson.M{}
	if status != "" {
		filter["account.status"] = status
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateStatus sets account.status (active/inactive/suspended/banned).
func (s *UserService) UpdateStatus(ctx context.Context, userID primitive.ObjectID, status string) error {
	res, err := s.col.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"account.status": status,
		"updatedAt":      time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
