package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dunderai/auditcore/config"
	"github.com/dunderai/auditcore/handlers"
	"github.com/dunderai/auditcore/middleware"
	"github.com/dunderai/auditcore/repositories"
	"github.com/dunderai/auditcore/repositories/postgres"
	"github.com/dunderai/auditcore/services/broker"
	"github.com/dunderai/auditcore/services/dataset"
	"github.com/dunderai/auditcore/services/detector"
	"github.com/dunderai/auditcore/services/evaluator"
	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/services/orchestrator"
	"github.com/dunderai/auditcore/services/specialists"
	"github.com/dunderai/auditcore/services/specialists/scripted"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Core services
	Cache        *dataset.Cache
	Finance      *finance.Service
	Registry     *specialists.Registry
	Broker       *broker.Broker
	Orchestrator *orchestrator.Service

	// Verdict archive; nil when the archive is disabled
	Verdicts repositories.VerdictRepository

	// HTTP surface
	AuditHandler      *handlers.AuditHandler
	FinanceHandler    *handlers.FinanceHandler
	ComplianceHandler *handlers.ComplianceHandler
	ProfilerHandler   *handlers.ProfilerHandler
	MessageHandler    *handlers.MessageHandler
	VerdictHandler    *handlers.VerdictHandler
	HealthHandler     *handlers.HealthHandler

	// Auth; nil when AUTH_ENABLED is false
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)

	if err := deps.initBroker(); err != nil {
		return nil, fmt.Errorf("failed to initialize broker: %w", err)
	}

	deps.initOrchestrator(cfg)
	deps.initHandlers()
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects the verdict archive when it is enabled. The
// rest of the service works without a database.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if !cfg.Database.Enabled {
		d.Logger.Info("verdict archive disabled, verdicts are not persisted")
		return nil
	}

	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return errors.Join(err, db.Close())
	}

	d.DB = db
	d.Verdicts = postgres.NewVerdictRepository(db, d.Logger)
	return nil
}

// initServices builds the dataset cache and the finance toolset.
func (d *Dependencies) initServices(cfg *config.Config) {
	client := &http.Client{Timeout: cfg.Dataset.FetchTimeout}
	loader := dataset.NewLoader(client)
	d.Cache = dataset.NewCache(loader, cfg.Dataset.CacheCapacity, d.Logger)

	det := detector.NewService(d.Logger,
		detector.WithApprovalLimit(cfg.Detector.ApprovalLimit))
	eval := evaluator.NewService(d.Logger,
		evaluator.WithMaxResultLength(cfg.Evaluator.MaxResultLength))

	d.Finance = finance.NewService(d.Cache, det, eval, cfg.Dataset.DefaultSource, d.Logger)
	d.Logger.Info("finance toolset initialized",
		zap.String("default_source", cfg.Dataset.DefaultSource))
}

// initBroker registers the scripted specialist adapter and the per-agent
// handlers. External specialists replace the scripted ones by
// re-registering on the registry before serving.
func (d *Dependencies) initBroker() error {
	d.Registry = specialists.NewRegistry()

	adapter := scripted.New(d.Logger)
	d.Registry.RegisterInvestigator(adapter)
	d.Registry.RegisterComplianceChecker(adapter)
	d.Registry.RegisterDataProvider(adapter)
	d.Registry.RegisterEmailSender(adapter)

	d.Broker = broker.New(d.Logger)
	handlerSet := broker.NewHandlerSet(d.Registry, d.Finance, d.Logger)
	if err := handlerSet.RegisterAll(d.Broker); err != nil {
		return err
	}

	d.Logger.Info("message broker initialized")
	return nil
}

// initOrchestrator builds the audit workflow engine.
func (d *Dependencies) initOrchestrator(cfg *config.Config) {
	opts := []orchestrator.Option{
		orchestrator.WithStepTimeout(cfg.Orchestrator.StepTimeout),
	}
	if d.Verdicts != nil {
		opts = append(opts, orchestrator.WithVerdictRepository(d.Verdicts))
	}

	d.Orchestrator = orchestrator.NewService(d.Broker, d.Registry, d.Finance, d.Logger, opts...)
}

// initHandlers builds the HTTP handlers.
func (d *Dependencies) initHandlers() {
	d.AuditHandler = handlers.NewAuditHandler(d.Orchestrator, d.Logger)
	d.FinanceHandler = handlers.NewFinanceHandler(d.Finance, d.Logger)
	d.ComplianceHandler = handlers.NewComplianceHandler(d.Broker, d.Logger)
	d.ProfilerHandler = handlers.NewProfilerHandler(d.Registry, d.Logger)
	d.MessageHandler = handlers.NewMessageHandler(d.Broker, d.Logger)
	d.VerdictHandler = handlers.NewVerdictHandler(d.Verdicts, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Finance, d.Logger)
}

// initAuth wires JWT verification when it is enabled.
func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.Auth.Enabled {
		d.Logger.Warn("auth disabled, API routes are unprotected")
		return
	}

	validator := middleware.NewJWTValidator(cfg.Auth.JWTSecret)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("JWT auth initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("failed to close database", zap.Error(err))
			return err
		}
	}

	return nil
}
