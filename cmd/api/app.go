package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	billingHandler "github.com/jwalitptl/clinic-api/internal/handler/billing"
	clinicalNoteHandler "github.com/jwalitptl/clinic-api/internal/handler/clinicalnote"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	documentHandler "github.com/jwalitptl/clinic-api/internal/handler/document"
	healthHandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	metricsHandler "github.com/jwalitptl/clinic-api/internal/handler/metrics"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	reminderHandler "github.com/jwalitptl/clinic-api/internal/handler/reminder"
	reportHandler "github.com/jwalitptl/clinic-api/internal/handler/report"
	treatmentPlanHandler "github.com/jwalitptl/clinic-api/internal/handler/treatmentplan"
	waitlistHandler "github.com/jwalitptl/clinic-api/internal/handler/waitlist"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/notification"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/repository/remote"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	auditService "github.com/jwalitptl/clinic-api/internal/service/audit"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	billingService "github.com/jwalitptl/clinic-api/internal/service/billing"
	clinicalNoteService "github.com/jwalitptl/clinic-api/internal/service/clinicalnote"
	doctorService "github.com/jwalitptl/clinic-api/internal/service/doctor"
	documentService "github.com/jwalitptl/clinic-api/internal/service/document"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	reminderService "github.com/jwalitptl/clinic-api/internal/service/reminder"
	reportService "github.com/jwalitptl/clinic-api/internal/service/report"
	treatmentPlanService "github.com/jwalitptl/clinic-api/internal/service/treatmentplan"
	waitlistService "github.com/jwalitptl/clinic-api/internal/service/waitlist"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	memoryBroker "github.com/jwalitptl/clinic-api/pkg/messaging/memory"
	redisBroker "github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

const metricsNamespace = "clinic"

type app struct {
	logger     *logger.Logger
	router     *router.Router
	dispatcher *worker.ReminderDispatcher
	closers    []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error(err, "Failed to release resource")
		}
	}
}

func newLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Console,
	})
}

// newApp wires every component from the configuration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := newLogger(cfg.Log)
	a := &app{logger: log}

	if err := validator.RegisterGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	m := metrics.New(metricsNamespace)

	auditor, err := auditService.NewService(cfg.Audit)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		_ = auditor.Sync()
		return nil
	})

	broker, err := newBroker(ctx, cfg.Redis, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, broker.Close)
	events := messaging.NewEmitter(broker, cfg.Redis.Channel, log, m)

	stores, checks, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStores != nil {
		a.closers = append(a.closers, closeStores)
	}
	if p, ok := broker.(repository.Pinger); ok {
		checks = append(checks, healthHandler.Check{Name: "event broker", Pinger: p})
	}
	stores = repository.Audited(stores, auditor, m)

	senders, err := notification.NewSenders(cfg.Notifications, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Clinic.Location()

	// Initialize services
	waitlistSvc := waitlistService.NewService(events, m, log)
	reminderSvc := reminderService.NewService(senders, stores.Patients, loc, events, m, log)
	appointmentSvc := appointmentService.NewService(stores.Appointments, reminderSvc, waitlistSvc, cfg.Clinic, events, log)
	patientSvc := patientService.NewService(stores.Patients)
	doctorSvc := doctorService.NewService(stores.Doctors)
	clinicalNoteSvc := clinicalNoteService.NewService(stores.ClinicalNotes)
	billingSvc := billingService.NewService(stores.Billing, events, log)
	treatmentPlanSvc := treatmentPlanService.NewService(stores.TreatmentPlans)
	documentSvc := documentService.NewService(stores.Documents, events, log)
	reportSvc := reportService.NewService(stores, loc, log)

	a.dispatcher = worker.NewReminderDispatcher(reminderSvc, worker.ReminderDispatcherConfig{
		PollInterval: cfg.Dispatcher.PollInterval,
	}, log, m)

	handlers := router.Handlers{
		Metrics: metricsHandler.NewHandler(m),
		Health:  healthHandler.NewHandler(checks...),
		Protected: []router.Handler{
			patientHandler.NewHandler(patientSvc),
			doctorHandler.NewHandler(doctorSvc),
			appointmentHandler.NewHandler(appointmentSvc, reminderSvc),
			clinicalNoteHandler.NewHandler(clinicalNoteSvc),
			billingHandler.NewHandler(billingSvc),
			treatmentPlanHandler.NewHandler(treatmentPlanSvc),
			documentHandler.NewHandler(documentSvc),
			waitlistHandler.NewHandler(waitlistSvc),
			reminderHandler.NewHandler(reminderSvc),
			reportHandler.NewHandler(reportSvc),
		},
	}

	var authMiddleware *middleware.AuthMiddleware
	if cfg.Auth.Enabled {
		tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		authSvc := authService.NewService(cfg.Auth.Operators, security.NewPasswords(bcrypt.DefaultCost), tokens, log)
		authMiddleware = middleware.NewAuthMiddleware(authSvc)
		handlers.Public = append(handlers.Public, authHandler.NewHandler(authSvc))
	} else {
		log.Warn("Authentication is disabled; every API route is open")
	}

	a.router = router.NewRouter(router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RequestTimeout:   cfg.Server.RequestTimeout,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RPS),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins),
	}, log, m, authMiddleware, handlers)

	return a, nil
}

func newBroker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Info("Publishing events in-process")
		return memoryBroker.NewBroker(), nil
	}
	broker, err := redisBroker.NewRedisBroker(ctx, redisBroker.Config{
		URL:        cfg.URL,
		MaxRetries: cfg.MaxRetries,
		PoolSize:   cfg.PoolSize,
	}, log.With("redis").ZL)
	if err != nil {
		return nil, err
	}
	log.Info("Publishing events to Redis", "channel", cfg.Channel)
	return broker, nil
}

// openStores builds the configured backend. The returned closer may be nil.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Stores, []healthHandler.Check, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return repository.Stores{}, nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return repository.Stores{}, nil, nil, err
		}
		base := postgres.NewBaseRepository(db)
		log.Info("Using postgres storage", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return postgres.NewStores(db), []healthHandler.Check{{Name: "database", Pinger: &base}}, db.Close, nil

	case config.BackendRemote:
		client := remote.NewClient(remote.Config{
			BaseURL:   cfg.Storage.Remote.BaseURL,
			ProjectID: cfg.Storage.Remote.ProjectID,
			PublicKey: cfg.Storage.Remote.PublicKey,
			Timeout:   cfg.Storage.Remote.Timeout,
		})
		log.Info("Using remote storage", "base_url", cfg.Storage.Remote.BaseURL)
		stores := remote.NewStores(client, remote.Options{CacheTTL: cfg.Storage.Remote.CacheTTL})
		return stores, []healthHandler.Check{{Name: "remote store", Pinger: client}}, nil, nil

	default:
		mem := memory.NewStores(memory.Options{Latency: cfg.Storage.Memory.Latency})
		if cfg.Storage.Memory.SeedFile != "" {
			if err := mem.LoadSeedFile(cfg.Storage.Memory.SeedFile); err != nil {
				return repository.Stores{}, nil, nil, err
			}
			log.Info("Loaded seed data", "file", cfg.Storage.Memory.SeedFile)
		}
		return mem.Repository(), nil, nil, nil
	}
}
