package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
)

type CreateSubscriptionPlanRequest struct {
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	Interval      string   `json:"interval,omitempty"`
	Features      []string `json:"features,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
	MaxUsers      int      `json:"maxUsers,omitempty"`
	APICallsLimit int      `json:"apiCallsLimit,omitempty"`
	StorageLimit  int      `json:"storageLimit,omitempty"`
	SupportLevel  string   `json:"supportLevel,omitempty"`
}

type UpdateSubscriptionPlanRequest struct {
	Name          *string   `json:"name,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	Currency      *string   `json:"currency,omitempty"`
	Interval      *string   `json:"interval,omitempty"`
	Features      *[]string `json:"features,omitempty"`
	IsActive      *bool     `json:"isActive,omitempty"`
	MaxUsers      *int      `json:"maxUsers,omitempty"`
	APICallsLimit *int      `json:"apiCallsLimit,omitempty"`
	StorageLimit  *int      `json:"storageLimit,omitempty"`
	SupportLevel  *string   `json:"supportLevel,omitempty"`
}

type CreateRevenueRecordRequest struct {
	Source        string                  `json:"source"`
	Amount        *float64                `json:"amount"`
	Currency      string                  `json:"currency,omitempty"`
	UserID        string                  `json:"userId,omitempty"`
	TransactionID string                  `json:"transactionId,omitempty"`
	Description   string                  `json:"description,omitempty"`
	Metadata      *models.RevenueMetadata `json:"metadata,omitempty"`
	Date          *time.Time              `json:"date,omitempty"`
}

var validPlanIntervals = map[string]bool{
	models.PlanIntervalMonth: true,
	models.PlanIntervalYear:  true,
}

var validSupportLevels = map[string]bool{
	models.SupportLevelBasic:    true,
	models.SupportLevelPriority: true,
	models.SupportLevelPremium:  true,
}

var validRevenueSources = map[string]bool{
	models.RevenueSourceSubscription: true,
	models.RevenueSourceTradingFees:  true,
	models.RevenueSourceAdvertising:  true,
	models.RevenueSourceAIStrategies: true,
	models.RevenueSourceDataServices: true,
	models.RevenueSourceVirtualGoods: true,
}

// CreateSubscriptionPlan creates a plan with the business dashboard's defaults.
func CreateSubscriptionPlan(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Plan name is required")
		return
	}
	if req.Price == nil || *req.Price < 0 {
		respondError(w, http.StatusBadRequest, "Price is required and must not be negative")
		return
	}
	if req.Interval != "" && !validPlanIntervals[req.Interval] {
		respondError(w, http.StatusBadRequest, "Interval must be month or year")
		return
	}
	if req.SupportLevel != "" && !validSupportLevels[req.SupportLevel] {
		respondError(w, http.StatusBadRequest, "Support level must be one of basic, priority, premium")
		return
	}

	plan := &models.SubscriptionPlan{
		Name:          req.Name,
		Price:         *req.Price,
		Currency:      req.Currency,
		Interval:      req.Interval,
		Features:      req.Features,
		IsActive:      true,
		MaxUsers:      req.MaxUsers,
		APICallsLimit: req.APICallsLimit,
		StorageLimit:  req.StorageLimit,
		SupportLevel:  req.SupportLevel,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	if plan.Interval == "" {
		plan.Interval = models.PlanIntervalMonth
	}
	if plan.SupportLevel == "" {
		plan.SupportLevel = models.SupportLevelBasic
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	created, err := businessService.CreatePlan(r.Context(), plan)
	if err != nil {
		log.Printf("ERROR: creating subscription plan: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create subscription plan")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// UpdateSubscriptionPlan applies a partial update to a plan.
func UpdateSubscriptionPlan(w http.ResponseWriter, r *http.Request) {
	var req UpdateSubscriptionPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Plan name must not be empty")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}
	if req.Interval != nil && !validPlanIntervals[*req.Interval] {
		respondError(w, http.StatusBadRequest, "Interval must be month or year")
		return
	}
	if req.SupportLevel != nil && !validSupportLevels[*req.SupportLevel] {
		respondError(w, http.StatusBadRequest, "Support level must be one of basic, priority, premium")
		return
	}

	plan, err := businessService.UpdatePlan(r.Context(), chi.URLParam(r, "id"), services.SubscriptionPlanUpdate{
		Name:          req.Name,
		Price:         req.Price,
		Currency:      req.Currency,
		Interval:      req.Interval,
		Features:      req.Features,
		IsActive:      req.IsActive,
		MaxUsers:      req.MaxUsers,
		APICallsLimit: req.APICallsLimit,
		StorageLimit:  req.StorageLimit,
		SupportLevel:  req.SupportLevel,
	})
	if err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "Subscription plan not found")
		} else {
			log.Printf("ERROR: updating subscription plan: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update subscription plan")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    plan,
	})
}

// CreateRevenueRecord stores a revenue entry from one of the known sources.
func CreateRevenueRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRevenueRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validRevenueSources[req.Source] {
		respondError(w, http.StatusBadRequest, "Source must be one of subscription, trading_fees, advertising, ai_strategies, data_services, virtual_goods")
		return
	}
	if req.Amount == nil || *req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "Amount is required and must not be negative")
		return
	}

	rec := &models.RevenueRecord{
		Source:        req.Source,
		Amount:        *req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
		Description:   req.Description,
		Metadata:      req.Metadata,
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}
	if req.Date != nil {
		rec.Date = *req.Date
	}
	if req.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		rec.UserID = &oid
	}

	created, err := businessService.CreateRevenueRecord(r.Context(), rec)
	if err != nil {
		log.Printf("ERROR: creating revenue record: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create revenue record")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}
