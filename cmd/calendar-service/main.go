package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"ms-calendar/internal/config"
	"ms-calendar/internal/database"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/events/cache"
	"ms-calendar/internal/events/db"
	"ms-calendar/internal/events/event_api"
	"ms-calendar/internal/events/service"
	"ms-calendar/internal/kafka"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/middleware"
	"ms-calendar/internal/sse"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Dir, "calendar-service", logger.ParseLevel(cfg.Log.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Calendar Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	log.Info("CONFIG", fmt.Sprintf("Environment %s, database %s", cfg.Env, cfg.Database.Redacted()))
	for _, w := range cfg.Warnings() {
		log.Warn("CONFIG", w)
	}

	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database,
		database.RetryPolicy{Attempts: database.DefaultAttempts, Delay: database.DefaultRetryDelay}, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Migrations.AutoMigrate {
		// the runner is not closed here: closing it would close bunDB too
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Migrations.Dir,
			AutoMigrate:   true,
		}, log)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
	}

	emitter := sse.NewChangeEmitter()
	publishers := service.FanOut{emitter}
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v, topic %s", cfg.Kafka.Brokers, cfg.Kafka.Topic))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		publishers = append(publishers, producer)
	} else {
		log.Info("KAFKA", "Kafka change feed disabled")
	}

	var store service.EventDBLayer = db.New(bunDB, cfg.Database.QueryTimeout)
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("CACHE", fmt.Sprintf("%v; serving listings uncached", err))
		} else {
			defer redisClient.Close()
			log.Info("CACHE", fmt.Sprintf("Caching listings in Redis at %s for %s", cfg.Redis.Addr, cfg.Redis.CacheTTL))
			store = cache.NewCachedStore(store, redisClient, cfg.Redis.CacheTTL, log)
		}
	}

	eventService := service.NewEventService(store, publishers, log)
	handler := event_api.NewHandler(eventService, log)
	handler.Changes = emitter

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/health", handler.Health)
	r.Route("/api", handler.RegisterRoutes)
	log.Info("ROUTER", "Event routes registered under /api/events")

	// request contexts derive from streamCtx so open change streams end on shutdown
	streamCtx, cancelStreams := context.WithCancel(ctx)
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return streamCtx },
	}
	server.RegisterOnShutdown(cancelStreams)

	go func() {
		log.Info("HTTP", fmt.Sprintf("Calendar Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.Info("SSE", fmt.Sprintf("Closing %d change stream clients", emitter.ClientCount()))
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Calendar Service shutdown complete")
	}
}
