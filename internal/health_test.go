package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/formlink"
)

func TestValidateDatabaseConfig(t *testing.T) {
	valid := formlink.DatabaseConfig{Host: "localhost", Port: 5432, Database: "formlink", MaxConnections: 10}
	require.NoError(t, ValidateDatabaseConfig(valid))

	bad := valid
	bad.Host = ""
	assert.Error(t, ValidateDatabaseConfig(bad))

	bad = valid
	bad.Port = 0
	assert.Error(t, ValidateDatabaseConfig(bad))

	bad = valid
	bad.Database = ""
	assert.Error(t, ValidateDatabaseConfig(bad))

	bad = valid
	bad.MaxConnections = 0
	assert.Error(t, ValidateDatabaseConfig(bad))
}

func TestValidateArchiveConfig(t *testing.T) {
	require.NoError(t, ValidateArchiveConfig(formlink.ArchiveConfig{Bucket: "b", Prefix: "exports"}))
	assert.Error(t, ValidateArchiveConfig(formlink.ArchiveConfig{Prefix: "exports"}))
	assert.Error(t, ValidateArchiveConfig(formlink.ArchiveConfig{Bucket: "b"}))
}

func TestPostgresHealthCheck_EmptyDSN(t *testing.T) {
	assert.Error(t, PostgresHealthCheck(context.Background(), "", 0))
}
