package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"feedback-backend/internal/config"
	"feedback-backend/internal/database"
	"feedback-backend/internal/handlers"
	"feedback-backend/internal/logger"
	"feedback-backend/internal/metrics"
	customMiddleware "feedback-backend/internal/middleware"
	"feedback-backend/internal/notify"
	"feedback-backend/internal/repository"
	"feedback-backend/internal/service"
	"feedback-backend/internal/session"
)

type storage struct {
	feedback repository.FeedbackRepository
	admins   repository.AdminRepository
	mongo    *mongo.Database
	postgres *sql.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	logger.Init(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := openStorage(ctx, cfg)
	defer store.close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Sessions
	sessionStore, redisClient := openSessionStore(ctx, cfg, store)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := session.NewManager(cfg.Session.JWTSecret, cfg.Session.TTL, sessionStore)
	gate := session.NewGate(sessions)

	// Services
	limiter := service.NewRateLimiter(store.feedback, cfg.RateLimit.Window, m)
	feedbackService := service.NewFeedbackService(store.feedback, limiter, newNotifier(cfg), m)
	moderationService := service.NewModerationService(store.feedback, m)
	adminService := service.NewAdminService(store.admins, sessions, m)

	if cfg.Admin.UsesDefaultPassword() {
		log.Warn().Str("username", cfg.Admin.Username).Msg("⚠️  ADMIN_PASSWORD not set, seeding admin with the default password")
	}
	if err := adminService.EnsureSeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to seed admin account")
	}

	// Handlers
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	authHandler := handlers.NewAuthHandler(adminService)

	// Setup chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(customMiddleware.CORS(cfg.Server.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"feedback-backend"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Public routes
	r.Post("/api/feedback", feedbackHandler.SubmitFeedback)
	r.Post("/api/admin/login", authHandler.Login)

	// Admin routes (live session required)
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.SessionGate(gate))

		r.Get("/api/admin/session", authHandler.Session)
		r.Post("/api/admin/logout", authHandler.Logout)
		r.Post("/api/admin/password", authHandler.ChangePassword)
		r.Get("/api/admin/feedback", moderationHandler.ListFeedback)
		r.Get("/api/admin/feedback/stats", moderationHandler.Stats)
		r.Delete("/api/admin/feedback/{id}", moderationHandler.DeleteFeedback)
	})

	// Start server
	log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("🚀 Feedback backend starting")
	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		log.Fatal().Err(err).Msg("❌ Server failed")
	}
}

func openStorage(ctx context.Context, cfg *config.Config) *storage {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to connect to PostgreSQL")
		}
		if err := database.EnsurePostgresSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to create PostgreSQL schema")
		}
		return &storage{
			feedback: repository.NewPostgresFeedbackRepo(db),
			admins:   repository.NewPostgresAdminRepo(db),
			postgres: db,
		}

	default:
		db, err := database.ConnectMongo(cfg.Storage.MongoURI, cfg.Storage.MongoDB)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to connect to MongoDB")
		}
		feedbackRepo := repository.NewMongoFeedbackRepo(db)
		adminRepo := repository.NewMongoAdminRepo(db)

		// Ensure indexes
		if err := feedbackRepo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to create feedback indexes")
		}
		if err := adminRepo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to create admin indexes")
		}
		return &storage{feedback: feedbackRepo, admins: adminRepo, mongo: db}
	}
}

func (s *storage) close() {
	if s.mongo != nil {
		database.DisconnectMongo(s.mongo)
	}
	if s.postgres != nil {
		s.postgres.Close()
	}
}

// openSessionStore prefers Redis, then the Mongo collection, then memory.
func openSessionStore(ctx context.Context, cfg *config.Config, store *storage) (session.Store, *redis.Client) {
	if cfg.Redis.Addr != "" {
		client, err := session.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to connect to Redis")
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("✅ Sessions stored in Redis")
		return session.NewRedisStore(client), client
	}

	if store.mongo != nil {
		s := session.NewMongoStore(store.mongo)
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to create session indexes")
		}
		log.Info().Msg("✅ Sessions stored in MongoDB")
		return s, nil
	}

	log.Warn().Msg("⚠️  REDIS_ADDR not set, sessions are kept in memory and lost on restart")
	return session.NewMemoryStore(), nil
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Notify.ResendAPIKey == "" {
		log.Warn().Msg("⚠️  RESEND_API_KEY not set, feedback notifications go to the log")
		return notify.NewLogNotifier()
	}
	n, err := notify.NewEmailNotifier(cfg.Notify.ResendAPIKey, cfg.Notify.FromEmail, cfg.Notify.AdminEmail)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  Email notifier disabled, falling back to the log")
		return notify.NewLogNotifier()
	}
	return n
}
