package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtside/courtside-api/internal/config"
	"github.com/courtside/courtside-api/internal/domain/booking"
	"github.com/courtside/courtside-api/internal/domain/game"
	"github.com/courtside/courtside-api/internal/domain/pricing"
	"github.com/courtside/courtside-api/internal/domain/slot"
	"github.com/courtside/courtside-api/internal/domain/venue"
	"github.com/courtside/courtside-api/internal/domain/wallet"
	"github.com/courtside/courtside-api/internal/middleware"
	"github.com/courtside/courtside-api/internal/pkg/database"
	"github.com/courtside/courtside-api/internal/pkg/jwt"
	"github.com/courtside/courtside-api/internal/pkg/lockcache"
	"github.com/courtside/courtside-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Courtside API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()

	// Single-instance deployments run without Redis; the soft-lock store
	// and pricing signals fall back to in-process implementations.
	var locks lockcache.Cache
	var searches pricing.SearchCounter
	var popularity pricing.PopularityCache
	if redisClient != nil {
		locks = lockcache.NewRedis(redisClient)
		signals := pricing.NewRedisSignals(redisClient, cfg.DemandWindow)
		searches, popularity = signals, signals
	} else {
		log.Warn().Msg("Redis not configured, using in-process lock cache and pricing signals")
		memLocks := lockcache.NewMemory()
		go memLocks.Janitor(janitorCtx, cfg.LockTTL)
		locks = memLocks
		signals := pricing.NewMemorySignals(cfg.DemandWindow)
		searches, popularity = signals, signals
	}

	// ---------- Repositories ----------
	slotRepo := slot.NewRepository(db)
	venueRepo := venue.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	gameRepo := game.NewRepository(db)

	// ---------- Services ----------
	walletService := wallet.NewService(walletRepo)
	quoter := pricing.NewQuoter(venueRepo, searches, popularity)
	bookingService := booking.NewService(db, slotRepo, venueRepo, bookingRepo, walletService, locks, quoter, cfg.LockTTL)

	// ---------- Workers ----------
	popularityWorker := pricing.NewWorker(db, popularity, cfg.PopularityInterval, cfg.PopularityCacheTTL)
	popularityWorker.Start()
	defer popularityWorker.Stop()

	sweeper := booking.NewSweeper(bookingService, gameRepo, cfg.SweepInterval, cfg.AutoCancelHorizon)
	sweeper.Start()
	defer sweeper.Stop()

	// ---------- Handlers ----------
	slotHandler := slot.NewHandler(slotRepo, quoter)
	bookingHandler := booking.NewHandler(bookingService)
	walletHandler := wallet.NewHandler(walletService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/slots", slotHandler.Routes())
		r.Mount("/bookings", bookingHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
