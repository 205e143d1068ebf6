package container

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/dmm-case-workflow/internal/application/service"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

const testSecret = "test-secret-that-is-long-enough-32b"

func memoryConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database.Driver = DriverMemory
	cfg.Auth.JWTSecret = testSecret
	cfg.Server.Mode = "test"
	cfg.Institutions = []InstitutionSeed{
		{Code: "MOH", Name: "Ministry of Health", Type: entity.InstitutionTypeMinistry},
		{Code: "AFAD", Name: "Disaster and Emergency Management"},
	}
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{name: "valid memory config", mutate: func(cfg *Config) {}},
		{name: "missing secret", mutate: func(cfg *Config) { cfg.Auth.JWTSecret = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(cfg *Config) { cfg.Database.Driver = "postgres" }, wantErr: true},
		{name: "sqlite without path", mutate: func(cfg *Config) {
			cfg.Database.Driver = DriverSQLite
			cfg.Database.Path = ""
		}, wantErr: true},
		{name: "lark enabled without credentials", mutate: func(cfg *Config) { cfg.Lark.Enabled = true }, wantErr: true},
		{name: "openai enabled without key", mutate: func(cfg *Config) { cfg.OpenAI.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			tt.mutate(cfg)
			_, err := NewContainer(cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewContainer(memoryConfig(), nil)
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	assert.NotNil(t, c.TxManager())
	assert.NotNil(t, c.Repositories())
	assert.NotNil(t, c.Dispatcher())
	assert.NotNil(t, c.WorkflowEngine())
	assert.NotNil(t, c.Services().Case)
	assert.NotNil(t, c.Services().Export)
	assert.Nil(t, c.Services().Notification, "lark is disabled")
	assert.NotNil(t, c.HTTPServer())

	health := c.Health(context.Background())
	assert.Equal(t, map[string]string{
		"database":   HealthOK,
		"dispatcher": HealthOK,
		"workflow":   HealthOK,
	}, health)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")
}

func TestContainer_HealthBeforeStart(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)

	health := c.Health(context.Background())
	assert.Equal(t, HealthNotInitialized, health["database"])
	assert.Equal(t, HealthNotInitialized, health["dispatcher"])
}

func TestContainer_SeedsInstitutionsAndRunsPipeline(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	ctx := context.Background()
	admin := domainwf.Actor{UserID: 1, Role: entity.RoleAdmin}

	institutions, err := c.Services().Case.ListInstitutions(ctx)
	require.NoError(t, err)
	require.Len(t, institutions, 2)
	assert.Equal(t, "AFAD", institutions[0].Code)
	assert.Equal(t, entity.InstitutionTypeOther, institutions[0].Type, "empty type defaults")

	view, err := c.Services().Case.CreateCase(ctx, admin, service.CreateCaseInput{
		Title:    "Fabricated earthquake warning",
		Platform: entity.PlatformTwitter,
	})
	require.NoError(t, err)

	result, err := c.Services().Case.PerformAction(ctx, admin, view.Case.ID,
		string(domainwf.ActionRouteToInstitution), []byte(`{"institution_id":1}`), "req-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAwaitingInstitution, result.Case.Status)
}

func TestContainer_HTTPRoutesServeHealth(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	c.HTTPServer().Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestContainer_SQLiteDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "dmm.db")

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, HealthOK, c.Health(context.Background())["database"])
	require.NoError(t, c.Close())

	// Seeding is idempotent across restarts
	c, err = NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	list, err := c.Repositories().Institution.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

type failingInstitutionRepo struct {
	listErr error
}

func (r *failingInstitutionRepo) Create(ctx context.Context, inst *entity.Institution) error {
	return errors.New("create failed")
}

func (r *failingInstitutionRepo) GetByID(ctx context.Context, id int64) (*entity.Institution, error) {
	return nil, nil
}

func (r *failingInstitutionRepo) ListActive(ctx context.Context) ([]*entity.Institution, error) {
	return nil, r.listErr
}

func TestSeedInstitutions_Errors(t *testing.T) {
	seeds := []InstitutionSeed{{Code: "MOH", Name: "Ministry of Health"}}

	err := SeedInstitutions(context.Background(), &failingInstitutionRepo{listErr: errors.New("db down")}, seeds, zap.NewNop())
	assert.ErrorContains(t, err, "list institutions")

	err = SeedInstitutions(context.Background(), &failingInstitutionRepo{}, seeds, zap.NewNop())
	assert.ErrorContains(t, err, "create institution MOH")

	assert.NoError(t, SeedInstitutions(context.Background(), &failingInstitutionRepo{}, nil, zap.NewNop()))
}

func TestConvertToZapFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	adapter := &zapLoggerAdapter{logger: zap.New(core)}

	adapter.Error("failed", "case_id", int64(7), "error", errors.New("boom"), 42, "dropped", "dangling")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(7), fields["case_id"])
	assert.Equal(t, "boom", fields["error"])
	assert.Len(t, fields, 2)
}
