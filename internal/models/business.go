package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription plan billing intervals.
const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// Subscription plan support levels.
const (
	SupportLevelBasic    = "basic"
	SupportLevelPriority = "priority"
	SupportLevelPremium  = "premium"
)

// Revenue sources.
const (
	RevenueSourceSubscription = "subscription"
	RevenueSourceTradingFees  = "trading_fees"
	RevenueSourceAdvertising  = "advertising"
	RevenueSourceAIStrategies = "ai_strategies"
	RevenueSourceDataServices = "data_services"
	RevenueSourceVirtualGoods = "virtual_goods"
)

type SubscriptionPlan struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Currency string             `bson:"currency" json:"currency"`
	Interval string             `bson:"interval" json:"interval"` // month | year
	Features []string           `bson:"features,omitempty" json:"features,omitempty"`
	IsActive bool               `bson:"isActive" json:"isActive"`

	MaxUsers      int    `bson:"maxUsers,omitempty" json:"maxUsers,omitempty"`
	APICallsLimit int    `bson:"apiCallsLimit,omitempty" json:"apiCallsLimit,omitempty"`
	StorageLimit  int    `bson:"storageLimit,omitempty" json:"storageLimit,omitempty"`
	SupportLevel  string `bson:"supportLevel" json:"supportLevel"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RevenueMetadata carries the source-specific detail of a revenue record.
type RevenueMetadata struct {
	PlanName     string `bson:"planName,omitempty" json:"planName,omitempty"`
	TradingPair  string `bson:"tradingPair,omitempty" json:"tradingPair,omitempty"`
	AdCampaign   string `bson:"adCampaign,omitempty" json:"adCampaign,omitempty"`
	StrategyType string `bson:"strategyType,omitempty" json:"strategyType,omitempty"`
	DataType     string `bson:"dataType,omitempty" json:"dataType,omitempty"`
	ItemName     string `bson:"itemName,omitempty" json:"itemName,omitempty"`
}

type RevenueRecord struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Source   string              `bson:"source" json:"source"`
	Amount   float64             `bson:"amount" json:"amount"`
	Currency string              `bson:"currency" json:"currency"`
	UserID   *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`

	TransactionID string           `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Description   string           `bson:"description,omitempty" json:"description,omitempty"`
	Metadata      *RevenueMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`

	Date      time.Time `bson:"date" json:"date"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
