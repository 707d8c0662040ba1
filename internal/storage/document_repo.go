package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voxlit/internal/models"

	"github.com/jackc/pgx/v5"
)

// DocumentRepo persists documents and their chunks in Postgres.
type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	meta, err := json.Marshal(nonNilMeta(d.Metadata))
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO documents (id, title, source, extra_meta, created_at)
VALUES ($1, $2, $3, $4::jsonb, COALESCE($5, now()))
ON CONFLICT (id)
DO UPDATE SET
  title = EXCLUDED.title,
  source = EXCLUDED.source,
  extra_meta = EXCLUDED.extra_meta`,
		d.ID, d.Title, string(d.SourceKind), string(meta), nullableTime(d))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", d.ID, err)
	}
	return nil
}

// ReplaceChunks makes chunks the complete chunk set of docID in one
// transaction and returns the ids of the previous chunks that are gone.
func (r *DocumentRepo) ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) ([]string, error) {
	keep := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.DocumentID != docID {
			return nil, fmt.Errorf("chunk %s belongs to %s, not %s", c.ID, c.DocumentID, docID)
		}
		keep = append(keep, c.ID)
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx replace chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
DELETE FROM chunks
WHERE doc_id = $1 AND NOT (id = ANY($2::text[]))
RETURNING id`, docID, keep)
	if err != nil {
		return nil, fmt.Errorf("delete stale chunks of %s: %w", docID, err)
	}
	stale, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect stale chunks of %s: %w", docID, err)
	}

	for i, c := range chunks {
		details, faq, err := encodeChunkLists(c)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO chunks (id, doc_id, position, conversational, key_details, source_extract, faq)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7::jsonb)
ON CONFLICT (id)
DO UPDATE SET
  position = EXCLUDED.position,
  conversational = EXCLUDED.conversational,
  key_details = EXCLUDED.key_details,
  source_extract = EXCLUDED.source_extract,
  faq = EXCLUDED.faq`,
			c.ID, c.DocumentID, i, c.ConversationalText, details, c.SourceExtract, faq)
		if err != nil {
			return nil, fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit chunks tx: %w", err)
	}
	return stale, nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, title, source, extra_meta, created_at
FROM documents
ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]models.Document, 0, 32)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, id string) (models.Document, error) {
	row := r.db.Pool.QueryRow(ctx, `
SELECT id, title, source, extra_meta, created_at
FROM documents
WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	return d, err
}

func (r *DocumentRepo) ListChunks(ctx context.Context, docID string) ([]models.Chunk, error) {
	query := `
SELECT id, doc_id, conversational, key_details, source_extract, faq
FROM chunks`
	args := []any{}
	if strings.TrimSpace(docID) != "" {
		query += ` WHERE doc_id = $1`
		args = append(args, docID)
	}
	query += ` ORDER BY doc_id ASC, position ASC`
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) GetChunk(ctx context.Context, id string) (models.Chunk, error) {
	row := r.db.Pool.QueryRow(ctx, `
SELECT id, doc_id, conversational, key_details, source_extract, faq
FROM chunks
WHERE id = $1`, id)
	c, err := scanChunk(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Chunk{}, ErrNotFound
	}
	return c, err
}

// DeleteDocument removes the document; chunks go with it via ON DELETE
// CASCADE. The removed chunk ids are returned for index cleanup.
func (r *DocumentRepo) DeleteDocument(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx delete document: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `SELECT id FROM chunks WHERE doc_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list chunk ids: %w", err)
	}
	chunkIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect chunk ids: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete document: %w", err)
	}
	return chunkIDs, nil
}

func (r *DocumentRepo) DeleteChunk(ctx context.Context, id string) (string, error) {
	var docID string
	err := r.db.Pool.QueryRow(ctx, `DELETE FROM chunks WHERE id = $1 RETURNING doc_id`, id).Scan(&docID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete chunk %s: %w", id, err)
	}
	return docID, nil
}

func scanDocument(row pgx.Row) (models.Document, error) {
	var (
		d      models.Document
		source string
		meta   []byte
	)
	if err := row.Scan(&d.ID, &d.Title, &source, &meta, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scan document: %w", err)
	}
	d.SourceKind = models.SourceKind(source)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &d.Metadata); err != nil {
			return d, fmt.Errorf("decode document metadata: %w", err)
		}
	}
	return d, nil
}

func scanChunk(row pgx.Row) (models.Chunk, error) {
	var (
		c       models.Chunk
		details []byte
		faq     []byte
	)
	if err := row.Scan(&c.ID, &c.DocumentID, &c.ConversationalText, &details, &c.SourceExtract, &faq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scan chunk: %w", err)
	}
	if err := json.Unmarshal(details, &c.KeyDetails); err != nil {
		return c, fmt.Errorf("decode key details: %w", err)
	}
	if err := json.Unmarshal(faq, &c.FAQ); err != nil {
		return c, fmt.Errorf("decode faq: %w", err)
	}
	return c, nil
}

func encodeChunkLists(c models.Chunk) (string, string, error) {
	details := c.KeyDetails
	if details == nil {
		details = []string{}
	}
	faq := c.FAQ
	if faq == nil {
		faq = []models.FAQ{}
	}
	d, err := json.Marshal(details)
	if err != nil {
		return "", "", fmt.Errorf("encode key details: %w", err)
	}
	f, err := json.Marshal(faq)
	if err != nil {
		return "", "", fmt.Errorf("encode faq: %w", err)
	}
	return string(d), string(f), nil
}

func nonNilMeta(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullableTime(d models.Document) any {
	if d.CreatedAt.IsZero() {
		return nil
	}
	return d.CreatedAt
}
