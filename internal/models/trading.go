package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trading record statuses.
const (
	TradeStatusPending   = "pending"
	TradeStatusCompleted = "completed"
	TradeStatusFailed    = "failed"
	TradeStatusCancelled = "cancelled"
)

// Risk levels assigned at record creation.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type MarketData struct {
	MarketPrice    float64 `bson:"marketPrice,omitempty" json:"marketPrice,omitempty"`
	PriceDeviation float64 `bson:"priceDeviation,omitempty" json:"priceDeviation,omitempty"`
	Volume24h      float64 `bson:"volume24h,omitempty" json:"volume24h,omitempty"`
	Volatility     float64 `bson:"volatility,omitempty" json:"volatility,omitempty"`
}

type TradingRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	OrderID   string             `bson:"orderId" json:"orderId"`
	Type      string             `bson:"type" json:"type"` // buy | sell
	Symbol    string             `bson:"symbol" json:"symbol"`
	Amount    float64            `bson:"amount" json:"amount"`
	Price     float64            `bson:"price" json:"price"`
	TotalValue float64           `bson:"totalValue" json:"totalValue"`
	Fee       float64            `bson:"fee" json:"fee"`
	FeeRate   float64            `bson:"feeRate" json:"feeRate"` // percent

	Status        string `bson:"status" json:"status"`
	ExecutionTime int64  `bson:"executionTime,omitempty" json:"executionTime,omitempty"`
	FailureReason string `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	RiskLevel      string   `bson:"riskLevel" json:"riskLevel"`
	IsAnomalous    bool     `bson:"isAnomalous" json:"isAnomalous"`
	AnomalyReasons []string `bson:"anomalyReasons,omitempty" json:"anomalyReasons,omitempty"`

	IPAddress string `bson:"ipAddress,omitempty" json:"-"`
	UserAgent string `bson:"userAgent,omitempty" json:"-"`

	MarketData *MarketData `bson:"marketData,omitempty" json:"marketData,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}
