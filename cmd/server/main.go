package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/taskboard/internal/api"
	"github.com/Rrens/taskboard/internal/config"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/logging"
	"github.com/Rrens/taskboard/internal/realtime"
	"github.com/Rrens/taskboard/internal/repository/memory"
	"github.com/Rrens/taskboard/internal/repository/mongo"
	"github.com/Rrens/taskboard/internal/repository/redis"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := ""
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envLoaded = p
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logFile, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logging")
	}
	defer logFile.Close()

	if envLoaded != "" {
		log.Debug().Str("path", envLoaded).Msg("Loaded .env")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Database.Driver).
		Msg("Starting taskboard API server")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize store
	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// Initialize realtime hub
	hub := realtime.NewHub(cfg.Realtime.ClientBuffer)
	defer hub.Shutdown()

	deps := api.Dependencies{
		Store:     store,
		Hub:       hub,
		Publisher: hub,
	}

	// Initialize Redis
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		bus := redis.NewEventBus(redisClient, cfg.Realtime.Channel)
		listener, err := bus.Listen(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to subscribe to event bus")
		}
		defer listener.Close()
		go listener.Run(ctx, hub)

		deps.Redis = redisClient
		deps.Publisher = bus
		log.Info().Str("channel", cfg.Realtime.Channel).Msg("Realtime events bridged through Redis")
	}

	// Initialize router
	router := api.NewRouter(cfg, deps)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()

	log.Info().Msg("Server stopped")
}

// openStore connects the configured document store and returns its closer
func openStore(ctx context.Context, cfg *config.Config) (domain.Store, func()) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory store: data is lost on restart")
		return memory.New(), func() {}
	case "mongo", "":
		if err := mongo.RunMigrations(cfg.Database); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		db, err := mongo.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		return db, func() {
			if err := db.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
	default:
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("Unknown database driver")
		return nil, nil
	}
}
