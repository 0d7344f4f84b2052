package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
)

// UserStore is the slice of the credential store the handlers use.
// *services.UserService implements it; tests substitute in-memory stubs.
type UserStore interface {
	Create(ctx context.Context, username, email, rawPassword string, profile models.Profile) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ApplyLoginSuccess(ctx context.Context, user *models.User, ip, userAgent string) error
	ApplyLoginFailure(ctx context.Context, user *models.User) error
	ResetLockout(ctx context.Context, userID primitive.ObjectID) error
	IssueEmailVerificationToken(ctx context.Context, userID primitive.ObjectID) (string, error)
	ConsumeEmailVerificationToken(ctx context.Context, token string) (*models.User, error)
	IssuePasswordResetToken(ctx context.Context, userID primitive.ObjectID) (string, error)
	ConsumePasswordResetToken(ctx context.Context, token, newRawPassword string) (*models.User, error)
	List(ctx context.Context, page, limit int, status string) ([]models.User, int64, error)
	UpdateStatus(ctx context.Context, userID primitive.ObjectID, status string) error
}

// TradingStore is the trading record store surface used by the handlers.
type TradingStore interface {
	Create(ctx context.Context, rec *models.TradingRecord) (*models.TradingRecord, error)
	List(ctx context.Context, opts services.TradingListOptions) ([]models.TradingRecord, int64, error)
	FindByID(ctx context.Context, id string) (*models.TradingRecord, error)
	UpdateStatus(ctx context.Context, id, status, failureReason string, executionTime int64) (*models.TradingRecord, error)
	SetAnomaly(ctx context.Context, id string, isAnomalous bool, reasons []string) (*models.TradingRecord, error)
}

// BusinessStore is the subscription-plan and revenue store surface.
type BusinessStore interface {
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id string, upd services.SubscriptionPlanUpdate) (*models.SubscriptionPlan, error)
	CreateRevenueRecord(ctx context.Context, rec *models.RevenueRecord) (*models.RevenueRecord, error)
}

// EmailSender sends the verification and password-reset mails.
type EmailSender interface {
	SendVerificationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
}

var (
	userService     UserStore
	tradingService  TradingStore
	businessService BusinessStore
	tokenService    *services.TokenService
	emailService    EmailSender
)

// Init wires the handler package to its services. Called once from main
// before the routes are registered.
func Init(users UserStore, trading TradingStore, business BusinessStore, tokens *services.TokenService, email EmailSender) {
	userService = users
	tradingService = trading
	businessService = business
	tokenService = tokens
	emailService = email
}
