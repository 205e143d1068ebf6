package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/dmm-case-workflow/internal/application/dispatcher"
	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/application/service"
	"github.com/garyjia/dmm-case-workflow/internal/application/workflow"
	httpapi "github.com/garyjia/dmm-case-workflow/internal/interfaces/http"
	"github.com/garyjia/dmm-case-workflow/pkg/database"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    port.TransactionManager
	repositories *RepositoryBundle

	// Infrastructure - External
	messenger port.LarkMessageSender
	drafter   port.ReportDrafter

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine
	services   *ServiceBundle

	// Interfaces
	httpServer *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Case        port.CaseRepository
	History     port.HistoryRepository
	Institution port.InstitutionRepository
}

// ServiceBundle groups all application services.
// Notification is nil when Lark is disabled.
type ServiceBundle struct {
	Case         service.CaseService
	Export       service.ExportService
	Notification service.NotificationService
}

// Health states reported per component
const (
	HealthOK             = "ok"
	HealthNotInitialized = "not initialized"
)

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, repositories and institution seeds
// 2. External clients (Lark, OpenAI)
// 3. Event dispatcher and workflow engine
// 4. Application services
// 5. HTTP server (built, not listening)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(ctx); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	// Step 2: Initialize external clients
	if err := c.initExternalClients(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized",
		zap.Bool("lark", c.messenger != nil),
		zap.Bool("openai", c.drafter != nil))

	// Step 3: Initialize dispatcher and workflow engine
	if err := c.initDispatcherAndWorkflow(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher and workflow: %w", err)
	}
	c.logger.Info("Dispatcher and workflow engine initialized")

	// Step 4: Initialize application services
	if err := c.initServices(); err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 5: Build the HTTP server
	server, err := ProvideHTTPServer(&c.config.Server, &c.config.Auth, c.services, c, c.logger)
	if err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	c.httpServer = server

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop HTTP server (reverse of step 5)
	if c.httpServer != nil {
		if err := c.httpServer.Stop(); err != nil {
			c.logger.Error("Failed to stop http server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	// Step 2: Close dispatcher so in-flight notifications finish (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: External clients don't need explicit cleanup (reverse of step 2)

	// Step 4: Close database (reverse of step 1)
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health reports each component as "ok" or a failure message.
// It satisfies the HTTP health checker.
func (c *Container) Health(ctx context.Context) map[string]string {
	components := make(map[string]string, 4)

	// Check database
	switch {
	case c.txManager == nil:
		components["database"] = HealthNotInitialized
	case c.db != nil:
		if err := c.db.PingContext(ctx); err != nil {
			components["database"] = fmt.Sprintf("ping failed: %v", err)
		} else {
			components["database"] = HealthOK
		}
	default:
		components["database"] = HealthOK
	}

	// Check dispatcher
	if c.dispatcher != nil {
		components["dispatcher"] = HealthOK
	} else {
		components["dispatcher"] = HealthNotInitialized
	}

	// Check workflow engine
	if c.workflow != nil {
		components["workflow"] = HealthOK
	} else {
		components["workflow"] = HealthNotInitialized
	}

	// Lark is only reported when enabled
	if c.config.Lark.Enabled {
		if c.messenger != nil {
			components["lark"] = HealthOK
		} else {
			components["lark"] = HealthNotInitialized
		}
	}

	return components
}

// initDatabase opens the store, then seeds the institution directory.
func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr
	c.repositories = bundle.Repositories

	return SeedInstitutions(ctx, c.repositories.Institution, c.config.Institutions, c.logger)
}

// closeDatabase releases the connection after a failed start.
func (c *Container) closeDatabase() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}

// initExternalClients initializes Lark and OpenAI clients using providers.
func (c *Container) initExternalClients() error {
	messenger, err := ProvideLarkMessenger(&c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.messenger = messenger

	drafter, err := ProvideReportDrafter(&c.config.OpenAI, c.logger)
	if err != nil {
		return err
	}
	c.drafter = drafter

	return nil
}

// initDispatcherAndWorkflow initializes the event dispatcher and workflow engine using providers.
func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:        c.repositories,
		TxManager:    c.txManager,
		Dispatcher:   c.dispatcher,
		Drafter:      c.drafter,
		DraftTimeout: c.config.OpenAI.Timeout,
		Logger:       c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine

	return nil
}

// initServices initializes all application services using providers.
func (c *Container) initServices() error {
	deps := &ServiceDeps{
		Repos:          c.repositories,
		TxManager:      c.txManager,
		Engine:         c.workflow,
		Dispatcher:     c.dispatcher,
		Messenger:      c.messenger,
		SuggestTimeout: c.config.OpenAI.Timeout,
		Logger:         c.logger,
	}
	if suggester, ok := c.drafter.(port.TagSuggester); ok {
		deps.Suggester = suggester
	}

	services, err := ProvideServices(deps)
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// Getters for accessing container components

// TxManager returns the transaction manager.
func (c *Container) TxManager() port.TransactionManager {
	return c.txManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// HTTPServer returns the HTTP adapter.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.httpServer
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces
// of services, the dispatcher, the engine and the HTTP adapter.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
