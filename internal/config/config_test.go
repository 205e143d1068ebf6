package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/dmm.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, validSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "dmm-case-workflow", cfg.Auth.Issuer)
	assert.False(t, cfg.Lark.Enabled)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_EnvOverridesCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("LARK_APP_ID", "cli_test")
	t.Setenv("LARK_APP_SECRET", "lark-secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := writeConfig(t, `
lark:
  enabled: true
openai:
  enabled: true
  model: gpt-4o
institutions:
  - code: SB
    name: Sağlık Bakanlığı
    type: MINISTRY
    lark_open_id: ou_123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cli_test", cfg.Lark.AppID)
	assert.Equal(t, "lark-secret", cfg.Lark.AppSecret)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	require.Len(t, cfg.Institutions, 1)
	assert.Equal(t, "ou_123", cfg.Institutions[0].LarkOpenID)

	cc := cfg.ToContainerConfig()
	assert.True(t, cc.Lark.Enabled)
	assert.Equal(t, "sk-test", cc.OpenAI.APIKey)
	assert.Equal(t, validSecret, cc.Auth.JWTSecret)
	require.Len(t, cc.Institutions, 1)
	assert.Equal(t, "SB", cc.Institutions[0].Code)
	assert.NoError(t, cc.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite", Path: "data/dmm.db"},
			Auth:     AuthConfig{JWTSecret: validSecret},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory driver needs no path", mutate: func(c *Config) {
			c.Database.Driver = "memory"
			c.Database.Path = ""
		}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "no secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "auth.jwt_secret is required"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "at least 32 bytes"},
		{name: "lark without app id", mutate: func(c *Config) {
			c.Lark = LarkConfig{Enabled: true, AppSecret: "s"}
		}, wantErr: "lark.app_id"},
		{name: "lark without secret", mutate: func(c *Config) {
			c.Lark = LarkConfig{Enabled: true, AppID: "cli"}
		}, wantErr: "lark.app_secret"},
		{name: "disabled lark needs nothing", mutate: func(c *Config) { c.Lark = LarkConfig{} }},
		{name: "openai without key", mutate: func(c *Config) { c.OpenAI.Enabled = true }, wantErr: "openai.api_key"},
		{name: "institution without name", mutate: func(c *Config) {
			c.Institutions = []InstitutionConfig{{Code: "SB"}}
		}, wantErr: "needs a code and a name"},
		{name: "duplicate institution code", mutate: func(c *Config) {
			c.Institutions = []InstitutionConfig{{Code: "SB", Name: "a"}, {Code: "SB", Name: "b"}}
		}, wantErr: "duplicate code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
