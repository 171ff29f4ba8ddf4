package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"good-morning-backend/internal/config"
	"good-morning-backend/internal/handlers"
	"good-morning-backend/internal/media"
	"good-morning-backend/internal/metrics"
	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/oauth"
	"good-morning-backend/internal/push"
	"good-morning-backend/internal/repository"
	"good-morning-backend/internal/services"
	"good-morning-backend/internal/spotify"
	"good-morning-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	metrics.MustRegister()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	subRepo := repository.NewPushSubscriptionRepository(db)

	// Optional collaborators
	var blobs services.BlobStore
	if cfg.AWS.Configured() {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
			PublicURL: cfg.AWS.PublicBase(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create object storage client")
		}
		blobs = store
	} else {
		log.Warn().Msg("Object storage not configured, uploads are disabled")
	}

	var tracks services.TrackLookup
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		tracks = spotify.NewClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	}

	var states oauth.StateStore
	if cfg.Redis.URL != "" {
		client, err := oauth.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		states = oauth.NewRedisStateStore(client)
	}

	senders := pushSenders(cfg.Push)

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	pairService := services.NewPairService(userRepo)
	dispatcher := services.NewDispatcher(userRepo, subRepo, senders, wsHub, cfg.Push.Timeout)
	noticeService := services.NewNoticeService(noticeRepo, userRepo, tracks, dispatcher, services.NewPeriod(cfg.Notice.Location()))

	var reencoder *media.Reencoder
	if cfg.Upload.ReencodeJPEG {
		reencoder = media.NewReencoder(cfg.Upload.JPEGQuality, cfg.Upload.MaxDimension)
	}
	uploadService := services.NewUploadService(media.NewValidator(reencoder), blobs)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(
		userService,
		oauth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		states,
		handlers.AuthOptions{
			FrontendURL:  cfg.Frontend.URL,
			SecureCookie: cfg.Frontend.SecureCookie,
			SessionTTL:   cfg.JWT.TTL,
		},
	)
	userHandler := handlers.NewUserHandler(userService)
	pairHandler := handlers.NewPairHandler(pairService, userService, wsHub)
	noticeHandler := handlers.NewNoticeHandler(noticeService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	pushHandler := handlers.NewPushHandler(dispatcher, cfg.Push.VAPIDPublicKey)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, []string{cfg.Frontend.URL})

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)

	// Public routes
	r.Get("/", healthHandler.Root)
	r.Get("/healthz", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/auth/google", authHandler.GoogleLogin)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)
	r.Get("/logout", authHandler.Logout)
	r.Get("/push/vapid-public-key", pushHandler.GetVAPIDPublicKey)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(userService))

		r.Get("/me", userHandler.GetProfile)
		r.Route("/user", func(r chi.Router) {
			r.Get("/get", userHandler.GetProfile)
			r.Put("/edit", userHandler.UpdateUsername)
			r.Put("/notifications", userHandler.SetNotifications)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/pair", pairHandler.CreatePair)
		})

		r.Route("/notices", func(r chi.Router) {
			r.Post("/create", noticeHandler.CreateNotice)
			r.Get("/get", noticeHandler.GetNotice)
			r.Get("/sent", noticeHandler.GetSentNotice)
			r.Get("/history", noticeHandler.GetHistory)
			r.Put("/{id}", noticeHandler.EditNotice)
		})

		r.With(httprate.LimitByIP(20, time.Minute)).Post("/upload", uploadHandler.Upload)

		r.Post("/push/subscribe", pushHandler.Subscribe)
		r.Delete("/push/unsubscribe", pushHandler.Unsubscribe)
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight push notifications finish; each is bounded by push.timeout
	dispatcher.Wait()

	log.Info().Msg("Server exited")
}

// pushSenders builds the delivery channel for each configured platform
func pushSenders(cfg config.PushConfig) map[string]push.Sender {
	senders := make(map[string]push.Sender)

	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		senders[models.PlatformWeb] = push.NewWebPushSender(push.WebPushOptions{
			Subscriber:      cfg.Subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		})
	} else {
		log.Warn().Msg("VAPID keys not configured, web push is disabled")
	}

	if cfg.APNs.KeyFile != "" {
		sender, err := push.NewAPNsSender(push.APNsOptions{
			KeyFile:    cfg.APNs.KeyFile,
			KeyID:      cfg.APNs.KeyID,
			TeamID:     cfg.APNs.TeamID,
			Topic:      cfg.APNs.Topic,
			Production: cfg.APNs.Production,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		senders[models.PlatformAPNs] = sender
	}

	return senders
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
