package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/potatochat/admin-backend/internal/config"
	"github.com/potatochat/admin-backend/internal/database"
	"github.com/potatochat/admin-backend/internal/handlers"
	"github.com/potatochat/admin-backend/internal/middleware"
	"github.com/potatochat/admin-backend/internal/routes"
	"github.com/potatochat/admin-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Println("⚠️  WARNING: JWT_SECRET not set, using the insecure default.")
		log.Println("   Generate one with: openssl rand -base64 32")
	}

	// Connect to Redis (rate limiting)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Build services
	userService := services.NewUserService(database.DB)
	tradingService := services.NewTradingService(database.DB)
	businessService := services.NewBusinessService(database.DB)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.FrontendURL)

	if emailService.Enabled() {
		log.Println("✅ Outbound email configured")
	} else {
		log.Println("Warning: SMTP_HOST not set. Verification and reset emails will not be sent.")
	}

	// Ensure MongoDB indexes
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := userService.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure user indexes: %v", err)
	}
	if err := tradingService.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure trading record indexes: %v", err)
	}
	if err := businessService.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure business indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	handlers.Init(userService, tradingService, businessService, tokenService, emailService)
	guard := middleware.NewAuthGuard(tokenService, userService)

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, login rate limiting)")
	}

	// Health check (no rate limit)
	startedAt := time.Now()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "OK",
			"timestamp":   time.Now().Format(time.RFC3339),
			"uptime":      time.Since(startedAt).Seconds(),
			"environment": cfg.Environment,
		})
	})

	routes.SetupRoutes(r, guard)

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/register")
	log.Println("  POST /api/auth/login")
	log.Println("  POST /api/auth/refresh-token")
	log.Println("  POST /api/auth/verify-email")
	log.Println("  POST /api/auth/forgot-password")
	log.Println("  POST /api/auth/reset-password")
	log.Println("  POST /api/auth/logout")
	log.Println("  GET  /api/auth/me")
	log.Println("  GET  /api/trading-records/records")
	log.Println("  POST /api/trading-records/records")
	log.Println("  GET  /api/trading-records/anomalies")
	log.Println("  POST /api/business-management/subscriptions/plans")
	log.Println("  POST /api/business-management/revenue")
	log.Println("  GET  /api/admin/users")

	log.Printf("🚀 Potato Chat admin backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
