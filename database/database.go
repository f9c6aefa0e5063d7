// Package database owns Postgres connection setup and schema bootstrap.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// NewPostgresPool opens a connection pool with the pgvector codecs
// registered, so embedding columns scan straight into pgvector.Vector.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return pool, nil
}

// EnsureGrantSchema creates the grants and grant_embeddings tables. The
// embedding column is dimensioned to the configured embedding model, so a
// model change requires a migration rather than silently mixing vector
// sizes.
func EnsureGrantSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS grants (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			support_amount TEXT,
			period TEXT,
			deadline TEXT,
			description TEXT,
			region TEXT,
			industry TEXT,
			status TEXT,
			grant_type TEXT,
			eligibility TEXT,
			required_documents TEXT[],
			raw_content TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS grant_embeddings (
			grant_id TEXT NOT NULL REFERENCES grants(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			PRIMARY KEY (grant_id, chunk_index)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_grant_embeddings_grant ON grant_embeddings(grant_id)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
