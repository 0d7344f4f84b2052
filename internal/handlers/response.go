package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": status < 400,
		"message": message,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondMessage(w, status, message)
}

// pageParams reads page/limit query values clamped to the same bounds the
// stores apply, so the pagination envelope echoes the effective values.
func pageParams(q url.Values) (page, limit int) {
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// respondValidationErrors returns 400 with per-field details.
func respondValidationErrors(w http.ResponseWriter, details []map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": "Input validation failed",
		"details": details,
	})
}
