package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/potatochat/admin-backend/internal/models"
	"github.com/potatochat/admin-backend/internal/services"
)

type contextKey string

const userContextKey contextKey = "authUser"

// UserFinder is the slice of the credential store the guard needs.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthGuard validates bearer tokens on protected requests and attaches the
// resolved account (password hash stripped) to the request context.
type AuthGuard struct {
	Tokens *services.TokenService
	Users  UserFinder
}

func NewAuthGuard(tokens *services.TokenService, users UserFinder) *AuthGuard {
	return &AuthGuard{Tokens: tokens, Users: users}
}

// RequireAuth verifies the access token and re-reads the account so a
// suspended or banned user is rejected even with a valid token.
func (g *AuthGuard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			guardError(w, http.StatusUnauthorized, "Access denied, missing authentication token")
			return
		}

		userID, err := g.Tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				guardError(w, http.StatusUnauthorized, "Token expired")
			} else {
				guardError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		user, err := g.Users.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				guardError(w, http.StatusUnauthorized, "Invalid token, user not found")
			} else {
				guardError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		if user.Account.Status != models.StatusActive {
			guardError(w, http.StatusForbidden, "Account is disabled")
			return
		}

		user.Password = ""
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin layers on RequireAuth and additionally requires admin level.
func (g *AuthGuard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r)
		if user == nil || user.Account.Level != models.LevelAdmin {
			guardError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the authenticated user attached by RequireAuth, or nil.
func UserFrom(r *http.Request) *models.User {
	if u, ok := r.Context().Value(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func guardError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
