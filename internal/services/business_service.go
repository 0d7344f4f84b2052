package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/potatochat/admin-backend/internal/models"
)

var ErrPlanNotFound = errors.New("subscription plan not found")

// BusinessService stores subscription plans and revenue records.
type BusinessService struct {
	plans   *mongo.Collection
	revenue *mongo.Collection
}

func NewBusinessService(db *mongo.Database) *BusinessService {
	return &BusinessService{
		plans:   db.Collection("subscription_plans"),
		revenue: db.Collection("revenue_records"),
	}
}

// EnsureIndexes creates the query indexes for the business dashboard.
func (s *BusinessService) EnsureIndexes(ctx context.Context) error {
	if _, err := s.plans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "isActive", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := s.revenue.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
	})
	return err
}

// CreatePlan inserts a new subscription plan.
func (s *BusinessService) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	now := time.Now()
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := s.plans.InsertOne(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// SubscriptionPlanUpdate is a partial plan update; nil fields are left unchanged.
type SubscriptionPlanUpdate struct {
	Name          *string
	Price         *float64
	Currency      *string
	Interval      *string
	Features      *[]string
	IsActive      *bool
	MaxUsers      *int
	APICallsLimit *int
	StorageLimit  *int
	SupportLevel  *string
}

// UpdatePlan applies a partial update and returns the updated plan.
func (s *BusinessService) UpdatePlan(ctx context.Context, id string, upd SubscriptionPlanUpdate) (*models.SubscriptionPlan, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Currency != nil {
		set["currency"] = *upd.Currency
	}
	if upd.Interval != nil {
		set["interval"] = *upd.Interval
	}
	if upd.Features != nil {
		set["features"] = *upd.Features
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}
	if upd.MaxUsers != nil {
		set["maxUsers"] = *upd.MaxUsers
	}
	if upd.APICallsLimit != nil {
		set["apiCallsLimit"] = *upd.APICallsLimit
	}
	if upd.StorageLimit != nil {
		set["storageLimit"] = *upd.StorageLimit
	}
	if upd.SupportLevel != nil {
		set["supportLevel"] = *upd.SupportLevel
	}

	var plan models.SubscriptionPlan
	err = s.plans.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// CreateRevenueRecord inserts a revenue record, defaulting the date to now.
func (s *BusinessService) CreateRevenueRecord(ctx context.Context, rec *models.RevenueRecord) (*models.RevenueRecord, error) {
	now := time.Now()
	rec.ID = primitive.NewObjectID()
	if rec.Date.IsZero() {
		rec.Date = now
	}
	rec.CreatedAt = now

	if _, err := s.revenue.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
