package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Queryer is the subset of pgxpool.Pool the index needs.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGIndex stores chunk embeddings in the chunk_vectors table and ranks them
// by pgvector cosine distance.
type PGIndex struct {
	q Queryer
}

func NewPGIndex(q Queryer) *PGIndex {
	return &PGIndex{q: q}
}

func (s *PGIndex) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		_, err := s.q.Exec(ctx, `
INSERT INTO chunk_vectors (chunk_id, doc_id, title, source, embedding)
VALUES ($1, $2, $3, $4, $5::vector)
ON CONFLICT (chunk_id)
DO UPDATE SET
  doc_id = EXCLUDED.doc_id,
  title = EXCLUDED.title,
  source = EXCLUDED.source,
  embedding = EXCLUDED.embedding`,
			e.ChunkID, e.DocumentID, e.Title, string(e.SourceKind), pgvector.NewVector(e.Vector))
		if err != nil {
			return fmt.Errorf("upsert vector %s: %w", e.ChunkID, err)
		}
	}
	return nil
}

func (s *PGIndex) Query(ctx context.Context, queryVec []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.q.Query(ctx, `
SELECT chunk_id, doc_id, title, source,
       1 - (embedding <=> $1::vector) AS score
FROM chunk_vectors
ORDER BY embedding <=> $1::vector
LIMIT $2`, pgvector.NewVector(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]Match, 0, topK)
	for rows.Next() {
		var (
			m      Match
			source string
		)
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.Title, &source, &m.Score); err != nil {
			return nil, fmt.Errorf("scan vector match: %w", err)
		}
		m.SourceKind = kind(source)
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func (s *PGIndex) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM chunk_vectors WHERE chunk_id = ANY($1)`, chunkIDs); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

func (s *PGIndex) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM chunk_vectors WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", docID, err)
	}
	return nil
}
