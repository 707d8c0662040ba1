package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a document or chunk id does not exist.
var ErrNotFound = errors.New("not found")

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}

// EnsureSchema creates the knowledge and audit tables when missing. The
// vector table is sized to embedDim.
func (d *DB) EnsureSchema(ctx context.Context, embedDim int) error {
	for _, stmt := range schemaStatements(embedDim) {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(embedDim int) []string {
	if embedDim <= 0 {
		embedDim = 1536
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  extra_meta JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE TABLE IF NOT EXISTS chunks (
  id TEXT PRIMARY KEY,
  doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  position INT NOT NULL DEFAULT 0,
  conversational TEXT NOT NULL DEFAULT '',
  key_details JSONB NOT NULL DEFAULT '[]'::jsonb,
  source_extract TEXT NOT NULL DEFAULT '',
  faq JSONB NOT NULL DEFAULT '[]'::jsonb
)`,
		`CREATE INDEX IF NOT EXISTS chunks_doc_id_idx ON chunks(doc_id, position)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_vectors (
  chunk_id TEXT PRIMARY KEY,
  doc_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  embedding vector(%d) NOT NULL
)`, embedDim),
		`CREATE INDEX IF NOT EXISTS chunk_vectors_doc_id_idx ON chunk_vectors(doc_id)`,
		`CREATE TABLE IF NOT EXISTS llm_calls (
  call_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  operation TEXT NOT NULL,
  session_id TEXT,
  provider_name TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  error_type TEXT,
  latency_ms BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	}
}
