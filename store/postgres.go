package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hongwoogi/grantrag/grant"
)

// PostgresRepository stores grants and pgvector embeddings in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveGrant(ctx context.Context, g *grant.Grant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO grants (id, title, support_amount, period, deadline, description,
			region, industry, status, grant_type, eligibility, required_documents,
			raw_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	`, g.ID, g.Title, g.SupportAmount, g.Period, g.Deadline, g.Description,
		g.Region, g.Industry, string(g.Status), g.GrantType, g.Eligibility,
		g.RequiredDocuments, g.RawContent)
	if err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveEmbeddings(ctx context.Context, grantID string, chunks []grant.ChunkEmbedding) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO grant_embeddings (grant_id, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4)
		`, grantID, chunk.Index, chunk.Content, pgvector.NewVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit embeddings: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListGrants(ctx context.Context) ([]grant.Grant, error) {
	rows, err := r.pool.Query(ctx, grantSelect+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	grants := make([]grant.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

func (r *PostgresRepository) GetGrant(ctx context.Context, id string) (*grant.Grant, error) {
	row := r.pool.QueryRow(ctx, grantSelect+" WHERE id = $1", id)
	g, err := scanGrant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) GetEmbeddings(ctx context.Context, grantID string) ([]grant.ChunkEmbedding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chunk_index, content, embedding
		FROM grant_embeddings
		WHERE grant_id = $1
		ORDER BY chunk_index ASC
	`, grantID)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	chunks := make([]grant.ChunkEmbedding, 0)
	for rows.Next() {
		var chunk grant.ChunkEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&chunk.Index, &chunk.Content, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		chunk.Embedding = vec.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// DeleteGrant removes the grant row; the embeddings go with it through
// the ON DELETE CASCADE foreign key.
func (r *PostgresRepository) DeleteGrant(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM grants WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const grantSelect = `
	SELECT id, title, support_amount, period, deadline, description,
		region, industry, status, grant_type, eligibility, required_documents,
		raw_content
	FROM grants`

func scanGrant(row pgx.Row) (*grant.Grant, error) {
	var g grant.Grant
	var status string
	if err := row.Scan(&g.ID, &g.Title, &g.SupportAmount, &g.Period, &g.Deadline,
		&g.Description, &g.Region, &g.Industry, &status, &g.GrantType,
		&g.Eligibility, &g.RequiredDocuments, &g.RawContent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan grant row: %w", err)
	}
	g.Status = grant.Status(status)
	return &g, nil
}

var _ Repository = (*PostgresRepository)(nil)
