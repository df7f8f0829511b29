package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/timesheet/internal/timesheet/consumers"
	"github.com/medflow/timesheet/internal/timesheet/events"
	"github.com/medflow/timesheet/internal/timesheet/handler"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/internal/timesheet/service"
	"github.com/medflow/timesheet/pkg/config"
	"github.com/medflow/timesheet/pkg/database"
	"github.com/medflow/timesheet/pkg/httputil"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/medflow/timesheet/pkg/messaging"
)

const serviceName = "timesheet-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Timesheet Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	// Initialize repositories
	dayRepo := repository.NewTimesheetRepository(db)
	jobRepo := repository.NewJobRepository(db)
	employeeRepo := repository.NewEmployeeCacheRepository(db)

	// Connect to RabbitMQ; outside staging and production the service runs without it
	var rmq *messaging.RabbitMQ
	publisher := events.NewTimesheetEventPublisher(messaging.NewNopPublisher(log), log)

	rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
	switch {
	case err == nil:
		defer rmq.Close()

		if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
			log.Fatal().Err(err).Msg("failed to declare dead letter queue")
		}

		publisher, err = events.NewRabbitMQPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}

		employeeConsumer, err := consumers.NewEmployeeEventConsumer(rmq, employeeRepo, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create employee event consumer")
		}
		if err := employeeConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start employee event consumer")
		}
	case config.IsProductionLike():
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	default:
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
	}

	// Initialize service
	timesheetService := service.NewTimesheetService(dayRepo, jobRepo, employeeRepo, publisher, service.Config{
		CompanyName: cfg.Export.CompanyName,
		SheetName:   cfg.Export.SheetName,
	}, log)

	// Initialize handlers
	timesheetHandler := handler.NewTimesheetHandler(timesheetService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)
	r.Use(httputil.UserContext)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// API routes
	r.Route("/api/v1/timesheets", timesheetHandler.RegisterRoutes)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
