package formlink

import (
	"time"
)

// Config consolidates engine settings.
type Config struct {
	History     HistoryConfig     `json:"history"`
	Persistence PersistenceConfig `json:"persistence"`
	Database    DatabaseConfig    `json:"database"`
	Archive     ArchiveConfig     `json:"archive"`
	Logging     LoggingConfig     `json:"logging"`
}

// HistoryConfig contains undo/redo settings.
type HistoryConfig struct {
	// MaxDepth bounds the undo stack; 0 means unbounded.
	MaxDepth int `json:"maxDepth"`
}

// PersistenceConfig contains mapping persistence settings.
type PersistenceConfig struct {
	// Directory holds per-form mapping documents for the file repository.
	Directory string `json:"directory"`
	// SaveTimeout bounds each asynchronous save issued by the store.
	SaveTimeout time.Duration `json:"saveTimeout"`
	// ErrorBuffer sizes the store's error channel.
	ErrorBuffer int `json:"errorBuffer"`
}

// DatabaseConfig contains Postgres connection settings for the database-backed
// mapping repository.
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	SSLMode        string        `json:"sslMode"`
	UseIAMAuth     bool          `json:"useIAMAuth"`
	MaxConnections int           `json:"maxConnections"`
	Timeout        time.Duration `json:"timeout"`
	TableName      string        `json:"tableName"`
}

// ArchiveConfig contains S3 export-archive settings.
type ArchiveConfig struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	Region string `json:"region"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			MaxDepth: 100,
		},
		Persistence: PersistenceConfig{
			Directory:   "./mappings",
			SaveTimeout: 10 * time.Second,
			ErrorBuffer: 16,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			SSLMode:        "require",
			MaxConnections: 10,
			Timeout:        30 * time.Second,
			TableName:      "form_field_mappings",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.History.MaxDepth < 0 {
		return &ConfigError{Field: "history.maxDepth", Message: "must not be negative"}
	}
	if c.Persistence.SaveTimeout <= 0 {
		return &ConfigError{Field: "persistence.saveTimeout", Message: "must be greater than 0"}
	}
	if c.Persistence.ErrorBuffer <= 0 {
		return &ConfigError{Field: "persistence.errorBuffer", Message: "must be greater than 0"}
	}
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Database.TableName == "" {
		return &ConfigError{Field: "database.tableName", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
