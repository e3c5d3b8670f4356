package formlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.History.MaxDepth)
	assert.Equal(t, 10*time.Second, cfg.Persistence.SaveTimeout)
	assert.Equal(t, 16, cfg.Persistence.ErrorBuffer)
	assert.Equal(t, "form_field_mappings", cfg.Database.TableName)
	assert.Equal(t, "require", cfg.Database.SSLMode)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative history depth",
			mutate:  func(c *Config) { c.History.MaxDepth = -1 },
			wantErr: "history.maxDepth",
		},
		{
			name:    "zero save timeout",
			mutate:  func(c *Config) { c.Persistence.SaveTimeout = 0 },
			wantErr: "persistence.saveTimeout",
		},
		{
			name:    "zero error buffer",
			mutate:  func(c *Config) { c.Persistence.ErrorBuffer = 0 },
			wantErr: "persistence.errorBuffer",
		},
		{
			name:    "zero max connections",
			mutate:  func(c *Config) { c.Database.MaxConnections = 0 },
			wantErr: "database.maxConnections",
		},
		{
			name:    "empty table name",
			mutate:  func(c *Config) { c.Database.TableName = "" },
			wantErr: "database.tableName",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantErr, ce.Field)
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "history.maxDepth", Message: "must not be negative"}
	assert.Contains(t, err.Error(), "history.maxDepth")
	assert.Contains(t, err.Error(), "must not be negative")
}
