package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/potatochat/admin-backend/internal/models"
)

var ErrRecordNotFound = errors.New("trading record not found")

// Anomaly reasons attached at record creation or by manual review.
const (
	AnomalyLargeAmount     = "large_amount"
	AnomalyPriceDeviation  = "price_deviation"
	AnomalyFrequentTrading = "frequent_trading"
)

// frequentTradeThreshold flags a user with more trades than this in the last hour.
const frequentTradeThreshold = 10

// TradingService stores and queries trading records.
type TradingService struct {
	col *mongo.Collection
}

func NewTradingService(db *mongo.Database) *TradingService {
	return &TradingService{col: db.Collection("trading_records")}
}

// EnsureIndexes creates the query indexes used by the admin dashboard.
func (s *TradingService) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "symbol", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isAnomalous", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Create inserts a new record. Total value, fee, order ID, risk level and
// anomaly flags are computed server-side; client-provided values for those
// fields are ignored.
func (s *TradingService) Create(ctx context.Context, rec *models.TradingRecord) (*models.TradingRecord, error) {
	now := time.Now()

	if rec.OrderID == "" {
		rec.OrderID = fmt.Sprintf("ORD_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
	}
	rec.ID = primitive.NewObjectID()
	rec.TotalValue = rec.Amount * rec.Price
	rec.Fee = rec.TotalValue * (rec.FeeRate / 100)
	if rec.Status == "" {
		rec.Status = models.TradeStatusPending
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	recentTrades, err := s.col.CountDocuments(ctx, bson.M{
		"userId":    rec.UserID,
		"createdAt": bson.M{"$gte": now.Add(-time.Hour)},
	})
	if err != nil {
		return nil, err
	}

	rec.RiskLevel = AssessRiskLevel(rec)
	rec.AnomalyReasons = DetectAnomalies(rec, int(recentTrades))
	rec.IsAnomalous = len(rec.AnomalyReasons) > 0

	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AssessRiskLevel scores a record on trade size and market conditions.
func AssessRiskLevel(rec *models.TradingRecord) string {
	score := 0

	switch {
	case rec.TotalValue > 100000:
		score += 3
	case rec.TotalValue > 10000:
		score += 2
	case rec.TotalValue > 1000:
		score += 1
	}

	if rec.MarketData != nil {
		if rec.MarketData.Volatility > 0.1 {
			score += 2
		}
		if rec.MarketData.PriceDeviation > 0.05 {
			score += 1
		}
	}

	switch {
	case score >= 5:
		return models.RiskHigh
	case score >= 3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// DetectAnomalies returns the anomaly reasons for a record, given how many
// trades the same user placed within the last hour.
func DetectAnomalies(rec *models.TradingRecord, recentTrades int) []string {
	var reasons []string

	if rec.TotalValue > 1000000 {
		reasons = append(reasons, AnomalyLargeAmount)
	}
	if rec.MarketData != nil && rec.MarketData.PriceDeviation > 0.1 {
		reasons = append(reasons, AnomalyPriceDeviation)
	}
	if recentTrades > frequentTradeThreshold {
		reasons = append(reasons, AnomalyFrequentTrading)
	}
	return reasons
}

// TradingListOptions filters the record listing.
type TradingListOptions struct {
	Page      int
	Limit     int
	Status    string
	Type      string
	Symbol    string
	UserID    string
	Anomalous *bool
	Since     time.Time
}

// List returns a page of records, newest first, plus the total match count.
func (s *TradingService) List(ctx context.Context, opts TradingListOptions) ([]models.TradingRecord, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	filter := bson.M{}
	if opts.Status != "" && opts.Status != "all" {
		filter["status"] = opts.Status
	}
	if opts.Type != "" && opts.Type != "all" {
		filter["type"] = opts.Type
	}
	if opts.Symbol != "" {
		filter["symbol"] = bson.M{"$regex": opts.Symbol, "$options": "i"}
	}
	if opts.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(opts.UserID)
		if err == nil {
			filter["userId"] = oid
		}
	}
	if opts.Anomalous != nil {
		filter["isAnomalous"] = *opts.Anomalous
	}
	if !opts.Since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": opts.Since}
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((opts.Page-1)*opts.Limit)).
		SetLimit(int64(opts.Limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var records []models.TradingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByID looks up a record by its hex object ID.
func (s *TradingService) FindByID(ctx context.Context, id string) (*models.TradingRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	var rec models.TradingRecord
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus transitions a record and stamps the matching timestamp field.
func (s *TradingService) UpdateStatus(ctx context.Context, id, status, failureReason string, executionTime int64) (*models.TradingRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	now := time.Now()
	set := bson.M{"status": status, "updatedAt": now}
	switch status {
	case models.TradeStatusCompleted:
		set["completedAt"] = now
		if executionTime > 0 {
			set["executionTime"] = executionTime
		}
	case models.TradeStatusFailed:
		set["failureReason"] = failureReason
	case models.TradeStatusCancelled:
		set["cancelledAt"] = now
	}

	var rec models.TradingRecord
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// SetAnomaly marks or clears the anomaly flag after manual review.
func (s *TradingService) SetAnomaly(ctx context.Context, id string, isAnomalous bool, reasons []string) (*models.TradingRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	if reasons == nil {
		reasons = []string{}
	}

	var rec models.TradingRecord
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"isAnomalous":    isAnomalous,
		"anomalyReasons": reasons,
		"updatedAt":      time.Now(),
	}}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}
