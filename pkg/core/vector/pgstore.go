package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGStore keeps vectors in a Postgres table with the pgvector extension
// (Supabase).
type PGStore struct {
	pool  *pgxpool.Pool
	table string
	dims  int
}

var _ Store = (*PGStore)(nil)

// NewPGStore returns a store over table. table must be a trusted identifier
// (it is validated by config).
func NewPGStore(pool *pgxpool.Pool, table string, dims int) *PGStore {
	return &PGStore{pool: pool, table: table, dims: dims}
}

// EnsureSchema creates the extension, table and HNSW index if missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			ordinal     INT NOT NULL,
			content     TEXT NOT NULL,
			metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding   vector(%d) NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table, s.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// Upsert writes records in one batch, replacing rows with the same id.
func (s *PGStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, ordinal, content, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::vector, NOW())
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			ordinal     = EXCLUDED.ordinal,
			content     = EXCLUDED.content,
			metadata    = EXCLUDED.metadata,
			embedding   = EXCLUDED.embedding,
			updated_at  = NOW()`, s.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		if len(r.Values) != s.dims {
			return fmt.Errorf("%w: record %s has %d, want %d", ErrDimensionMismatch, r.ID, len(r.Values), s.dims)
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		batch.Queue(query, r.ID, r.DocumentID, r.Ordinal, r.Content, meta, pgvector.NewVector(r.Values))
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, s.table)
	if _, err := s.pool.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete vectors of %s: %w", documentID, err)
	}
	return nil
}

// Query returns the topK most similar records that satisfy filter.
func (s *PGStore) Query(ctx context.Context, values []float32, topK int, filter Filter) ([]Match, error) {
	if len(values) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(values), s.dims)
	}
	if topK <= 0 {
		topK = 5
	}

	where, args := filterClause(filter, 3)
	query := fmt.Sprintf(`
		SELECT id, document_id, ordinal, content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		%s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, s.table, where)

	params := append([]any{pgvector.NewVector(values), topK}, args...)
	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var meta []byte
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Ordinal, &m.Content, &meta, &m.Score); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Exists reports whether any row satisfies filter.
func (s *PGStore) Exists(ctx context.Context, filter Filter) (bool, error) {
	where, args := filterClause(filter, 1)
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s %s)`, s.table, where)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check vector existence: %w", err)
	}
	return exists, nil
}

// filterClause renders filter as a WHERE clause whose placeholders start at
// $firstArg. Keys are sorted so the SQL is stable.
func filterClause(filter Filter, firstArg int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	n := firstArg
	for _, k := range keys {
		conds = append(conds, fmt.Sprintf("LOWER(metadata->>$%d) = LOWER($%d)", n, n+1))
		args = append(args, k, filter[k])
		n += 2
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
