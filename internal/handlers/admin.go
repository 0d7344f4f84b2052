package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
)

type UpdateUserStatusRequest struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type UnlockUserRequest struct {
	UserID string `json:"userId"`
}

var validStatuses = map[string]bool{
	models.StatusActive:    true,
	models.StatusInactive:  true,
	models.StatusSuspended: true,
	models.StatusBanned:    true,
}

// ListUsers returns a page of accounts for the admin dashboard.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r.URL.Query())
	status := r.URL.Query().Get("status")

	if status != "" && !validStatuses[status] {
		respondError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	users, total, err := userService.List(r.Context(), page, limit, status)
	if err != nil {
		log.Printf("ERROR: listing users: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	items := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		u := &users[i]
		item := u.Summary()
		item["createdAt"] = u.CreatedAt
		item["lastLogin"] = u.Activity.LastLogin
		item["loginCount"] = u.Activity.LoginCount
		items = append(items, item)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    items,
		"pagination": map[string]interface{}{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// UpdateUserStatus sets an account's status (suspend, ban, reactivate).
func UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validStatuses[req.Status] {
		respondError(w, http.StatusBadRequest, "Status must be one of active, inactive, suspended, banned")
		return
	}

	oid, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := userService.UpdateStatus(r.Context(), oid, req.Status); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
		} else {
			log.Printf("ERROR: updating user status: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update user status")
		}
		return
	}

	respondMessage(w, http.StatusOK, "User status updated")
}

// UnlockUser clears an account's lockout state ahead of the lazy expiry.
func UnlockUser(w http.ResponseWriter, r *http.Request) {
	var req UnlockUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	oid, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := userService.ResetLockout(r.Context(), oid); err != nil {
		log.Printf("ERROR: unlocking user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to unlock user")
		return
	}

	respondMessage(w, http.StatusOK, "User unlocked")
}
