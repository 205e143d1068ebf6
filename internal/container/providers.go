package container

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/dispatcher"
	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/application/service"
	"github.com/garyjia/dmm-case-workflow/internal/application/workflow"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/export"
	infraLark "github.com/garyjia/dmm-case-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/external/openai"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/memory"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/dmm-case-workflow/internal/interfaces/http"
	"github.com/garyjia/dmm-case-workflow/migrations"
	"github.com/garyjia/dmm-case-workflow/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
// DB is nil for the memory driver.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr port.TransactionManager
	Repositories   *RepositoryBundle
}

// ProvideDatabase opens the configured store and returns its transaction
// manager and repositories. SQLite migrations run automatically.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == DriverMemory {
		store := memory.NewStore()
		logger.Info("Using in-memory store")
		return &DatabaseBundle{
			TransactionMgr: store,
			Repositories: &RepositoryBundle{
				Case:        store.Cases(),
				History:     store.History(),
				Institution: store.Institutions(),
			},
		}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos, err := ProvideRepositories(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
		Repositories:   repos,
	}, nil
}

// ProvideRepositories creates the SQLite repositories.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Case:        repository.NewCaseRepository(db.DB, logger),
		History:     repository.NewHistoryRepository(db.DB, logger),
		Institution: repository.NewInstitutionRepository(db.DB, logger),
	}, nil
}

// SeedInstitutions creates every configured institution whose code is not
// already in the active directory.
func SeedInstitutions(ctx context.Context, repo port.InstitutionRepository, seeds []InstitutionSeed, logger *zap.Logger) error {
	if len(seeds) == 0 {
		return nil
	}

	existing, err := repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list institutions: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, inst := range existing {
		known[inst.Code] = true
	}

	created := 0
	for _, seed := range seeds {
		if known[seed.Code] {
			continue
		}
		instType := seed.Type
		if instType == "" {
			instType = entity.InstitutionTypeOther
		}
		inst := &entity.Institution{
			Code:       seed.Code,
			Name:       seed.Name,
			Type:       instType,
			LarkOpenID: seed.LarkOpenID,
			Active:     true,
		}
		if err := repo.Create(ctx, inst); err != nil {
			return fmt.Errorf("create institution %s: %w", seed.Code, err)
		}
		created++
	}

	if created > 0 {
		logger.Info("Institutions seeded", zap.Int("created", created))
	}
	return nil
}

// ProvideLarkMessenger creates the Lark message sender.
// Returns nil when Lark is disabled.
func ProvideLarkMessenger(cfg *LarkConfig, logger *zap.Logger) (port.LarkMessageSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if !cfg.Enabled {
		logger.Info("Lark notifications disabled")
		return nil, nil
	}

	sdkClient := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)

	return infraLark.NewMessenger(sdkClient, logger), nil
}

// ProvideReportDrafter creates the OpenAI external-report drafter.
// Returns nil when OpenAI is disabled.
func ProvideReportDrafter(cfg *OpenAIConfig, logger *zap.Logger) (port.ReportDrafter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("openai config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if !cfg.Enabled {
		logger.Info("Report drafting disabled, template reports will be used")
		return nil, nil
	}

	prompts := openai.DefaultPrompts()
	if cfg.PromptsPath != "" {
		loaded, err := openai.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		prompts = loaded
	}

	return openai.NewDrafter(openai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}, prompts, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
// Returns dispatcher.Dispatcher implementation.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos        *RepositoryBundle
	TxManager    port.TransactionManager
	Dispatcher   dispatcher.Dispatcher
	Drafter      port.ReportDrafter
	DraftTimeout time.Duration
	Logger       *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine over the case catalog.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger.Named("workflow")}),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.Drafter != nil {
		opts = append(opts, workflow.WithReportDrafter(deps.Drafter, deps.DraftTimeout))
	}

	return workflow.NewEngine(
		workflow.BuildCaseCatalog(),
		deps.Repos.Case,
		deps.Repos.History,
		deps.Repos.Institution,
		deps.TxManager,
		opts...,
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Engine     workflow.WorkflowEngine
	Dispatcher dispatcher.Dispatcher
	Messenger  port.LarkMessageSender
	// Suggester is optional; without it tags come from keywords
	Suggester      port.TagSuggester
	SuggestTimeout time.Duration
	Logger         *zap.Logger
}

// ProvideServices creates all application services. The notification
// service is only built and subscribed when a messenger is available.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	// Create logger adapter for services
	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	var caseOpts []service.CaseServiceOption
	if deps.Suggester != nil {
		caseOpts = append(caseOpts, service.WithTagSuggester(deps.Suggester, deps.SuggestTimeout))
	}

	caseService := service.NewCaseService(
		deps.Repos.Case,
		deps.Repos.History,
		deps.Repos.Institution,
		deps.TxManager,
		deps.Engine,
		deps.Dispatcher,
		serviceLogger,
		caseOpts...,
	)

	bundle := &ServiceBundle{
		Case: caseService,
		Export: service.NewExportService(
			caseService,
			export.NewHistoryExcelExporter(deps.Logger),
			serviceLogger,
		),
	}

	if deps.Messenger != nil {
		bundle.Notification = service.NewNotificationService(
			deps.Repos.Case,
			deps.Repos.Institution,
			deps.Messenger,
			serviceLogger,
		)
		if deps.Dispatcher != nil {
			bundle.Notification.Register(deps.Dispatcher)
		}
	}

	return bundle, nil
}

// ProvideHTTPServer creates the HTTP adapter over the case services.
func ProvideHTTPServer(cfg *ServerConfig, auth *AuthConfig, services *ServiceBundle, health httpapi.HealthChecker, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil || auth == nil {
		return nil, fmt.Errorf("server and auth config are required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:            cfg.Host,
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Mode:            cfg.Mode,
		},
		services.Case,
		services.Export,
		httpapi.NewTokenValidator(auth.JWTSecret, auth.Issuer),
		health,
		&zapLoggerAdapter{logger: logger.Named("http")},
	), nil
}
