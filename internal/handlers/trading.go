package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/potatochat/admin-backend/internal/middleware"
	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
	"github.com/potatochat/admin-backend/pkg/clientip"
)

type CreateTradingRecordRequest struct {
	Type       string             `json:"type"`
	Symbol     string             `json:"symbol"`
	Amount     float64            `json:"amount"`
	Price      float64            `json:"price"`
	FeeRate    float64            `json:"feeRate"`
	MarketData *models.MarketData `json:"marketData,omitempty"`
}

type UpdateTradeStatusRequest struct {
	Status        string `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`
	ExecutionTime int64  `json:"executionTime,omitempty"`
}

type MarkAnomalyRequest struct {
	IsAnomalous    bool     `json:"isAnomalous"`
	AnomalyReasons []string `json:"anomalyReasons,omitempty"`
}

var validTradeStatuses = map[string]bool{
	models.TradeStatusPending:   true,
	models.TradeStatusCompleted: true,
	models.TradeStatusFailed:    true,
	models.TradeStatusCancelled: true,
}

// CreateTradingRecord records a trade for the authenticated user. Totals,
// fee, order ID and risk assessment are computed server-side.
func CreateTradingRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateTradingRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type != "buy" && req.Type != "sell" {
		respondError(w, http.StatusBadRequest, "Type must be buy or sell")
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}
	if req.Amount <= 0 || req.Price <= 0 {
		respondError(w, http.StatusBadRequest, "Amount and price must be positive")
		return
	}
	if req.FeeRate < 0 || req.FeeRate > 100 {
		respondError(w, http.StatusBadRequest, "Fee rate must be between 0 and 100")
		return
	}

	user := middleware.UserFrom(r)
	rec := &models.TradingRecord{
		UserID:     user.ID,
		Type:       req.Type,
		Symbol:     req.Symbol,
		Amount:     req.Amount,
		Price:      req.Price,
		FeeRate:    req.FeeRate,
		MarketData: req.MarketData,
		IPAddress:  clientip.RealClientIP(r),
		UserAgent:  r.UserAgent(),
	}

	created, err := tradingService.Create(r.Context(), rec)
	if err != nil {
		log.Printf("ERROR: creating trading record: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create trading record")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// ListTradingRecords returns records with filters and pagination.
func ListTradingRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)

	opts := services.TradingListOptions{
		Page:   page,
		Limit:  limit,
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Symbol: q.Get("symbol"),
		UserID: q.Get("userId"),
	}
	if since := dateRangeStart(q.Get("dateRange")); !since.IsZero() {
		opts.Since = since
	}

	records, total, err := tradingService.List(r.Context(), opts)
	if err != nil {
		log.Printf("ERROR: listing trading records: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list trading records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    records,
		"pagination": map[string]interface{}{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetTradingRecord returns one record by ID.
func GetTradingRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := tradingService.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Trading record not found")
		} else {
			log.Printf("ERROR: fetching trading record: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to fetch trading record")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rec,
	})
}

// UpdateTradingRecordStatus transitions a record's lifecycle status.
func UpdateTradingRecordStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateTradeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validTradeStatuses[req.Status] {
		respondError(w, http.StatusBadRequest, "Status must be one of pending, completed, failed, cancelled")
		return
	}

	rec, err := tradingService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.FailureReason, req.ExecutionTime)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Trading record not found")
		} else {
			log.Printf("ERROR: updating trading record status: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update trading record")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rec,
	})
}

// MarkTradingRecordAnomaly sets or clears the anomaly flag after review.
func MarkTradingRecordAnomaly(w http.ResponseWriter, r *http.Request) {
	var req MarkAnomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := tradingService.SetAnomaly(r.Context(), chi.URLParam(r, "id"), req.IsAnomalous, req.AnomalyReasons)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Trading record not found")
		} else {
			log.Printf("ERROR: marking trading record anomaly: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update trading record")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rec,
	})
}

// ListTradingAnomalies returns flagged records within a time range.
func ListTradingAnomalies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)

	anomalous := true
	opts := services.TradingListOptions{
		Page:      page,
		Limit:     limit,
		Anomalous: &anomalous,
	}
	timeRange := q.Get("timeRange")
	if timeRange == "" {
		timeRange = "7d"
	}
	if since := dateRangeStart(timeRange); !since.IsZero() {
		opts.Since = since
	}

	records, total, err := tradingService.List(r.Context(), opts)
	if err != nil {
		log.Printf("ERROR: listing anomalies: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list anomalies")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    records,
		"pagination": map[string]interface{}{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// dateRangeStart maps the dashboard's range shorthand to a start time.
func dateRangeStart(dateRange string) time.Time {
	var d time.Duration
	switch dateRange {
	case "1d":
		d = 24 * time.Hour
	case "7d":
		d = 7 * 24 * time.Hour
	case "30d":
		d = 30 * 24 * time.Hour
	case "90d":
		d = 90 * 24 * time.Hour
	default:
		return time.Time{}
	}
	return time.Now().Add(-d)
}
