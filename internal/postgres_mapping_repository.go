package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caremesh/formlink"
)

// DBPool is the slice of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresMappingRepository persists each form's mapping set as one JSONB
// document row, upserted whole. Mapping sets are small and always read and
// written together, so a document-per-form row beats a row-per-mapping layout.
type postgresMappingRepository struct {
	pool  DBPool
	table string
}

// NewPostgresMappingRepository creates a repository over an existing pool.
func NewPostgresMappingRepository(pool DBPool, tableName string) (formlink.MappingRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool must not be nil")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name must not be empty")
	}
	return &postgresMappingRepository{
		pool:  pool,
		table: sanitizeIdentifier(tableName),
	}, nil
}

// EnsureSchema creates the backing table when it does not exist.
func EnsureSchema(ctx context.Context, pool DBPool, tableName string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		form_id TEXT PRIMARY KEY,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, sanitizeIdentifier(tableName))
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create mapping table %s: %w", tableName, err)
	}
	return nil
}

func (r *postgresMappingRepository) LoadMappings(ctx context.Context, formID string) ([]formlink.FieldMapping, error) {
	query := fmt.Sprintf("SELECT document FROM %s WHERE form_id = $1", r.table)

	var document []byte
	err := r.pool.QueryRow(ctx, query, formID).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, formlink.NewPersistenceError(formID, "failed to load mapping document", err)
	}

	var mappings []formlink.FieldMapping
	if err := json.Unmarshal(document, &mappings); err != nil {
		return nil, formlink.NewPersistenceError(formID, "mapping document is corrupt", err)
	}
	return mappings, nil
}

func (r *postgresMappingRepository) SaveMappings(ctx context.Context, formID string, mappings []formlink.FieldMapping) error {
	if mappings == nil {
		mappings = []formlink.FieldMapping{}
	}
	document, err := json.Marshal(mappings)
	if err != nil {
		return formlink.NewPersistenceError(formID, "failed to marshal mapping document", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (form_id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (form_id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`, r.table)

	if _, err := r.pool.Exec(ctx, query, formID, document); err != nil {
		return formlink.NewPersistenceError(formID, "failed to save mapping document", err)
	}
	return nil
}
