package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voxlit/internal/models"
	"voxlit/internal/providers"
	"voxlit/internal/storage"
	"voxlit/internal/vector"

	"go.uber.org/zap"
)

// ErrNotFound is returned for absent document or chunk ids.
var ErrNotFound = storage.ErrNotFound

type DocumentRepository interface {
	UpsertDocument(ctx context.Context, d models.Document) error
	ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) ([]string, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	ListChunks(ctx context.Context, docID string) ([]models.Chunk, error)
	GetChunk(ctx context.Context, id string) (models.Chunk, error)
	DeleteDocument(ctx context.Context, id string) ([]string, error)
	DeleteChunk(ctx context.Context, id string) (string, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, entries []vector.Entry) error
	Query(ctx context.Context, queryVec []float32, topK int) ([]vector.Match, error)
	Delete(ctx context.Context, chunkIDs []string) error
	DeleteDocument(ctx context.Context, docID string) error
}

// DeleteReport describes a delete whose relational part succeeded. Warning
// is set when the vector index could not be cleaned up.
type DeleteReport struct {
	DocumentID string   `json:"doc_id"`
	ChunkIDs   []string `json:"chunk_ids,omitempty"`
	Warning    string   `json:"warning,omitempty"`
}

// Store keeps documents and chunks in the relational repo and their
// embeddings in the vector index. The relational side is authoritative.
type Store struct {
	repo     DocumentRepository
	index    VectorIndex
	embedder providers.EmbeddingProvider
	dim      int
	logger   *zap.Logger
}

func NewStore(repo DocumentRepository, index VectorIndex, embedder providers.EmbeddingProvider, dim int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, index: index, embedder: embedder, dim: dim, logger: logger.Named("knowledge")}
}

// Upsert stores doc with exactly the given chunks. Chunks left over from an
// earlier ingest of the same document are removed along with their vectors.
func (s *Store) Upsert(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("document id is required")
	}
	if !doc.SourceKind.Valid() {
		return fmt.Errorf("unknown source kind %q", doc.SourceKind)
	}
	for i := range chunks {
		if chunks[i].DocumentID == "" {
			chunks[i].DocumentID = doc.ID
		}
		if chunks[i].DocumentID != doc.ID {
			return fmt.Errorf("chunk %s belongs to %s, not %s", chunks[i].ID, chunks[i].DocumentID, doc.ID)
		}
	}

	if err := s.repo.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	stale, err := s.repo.ReplaceChunks(ctx, doc.ID, chunks)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		if err := s.index.Delete(ctx, stale); err != nil {
			s.logger.Warn("stale vectors not removed",
				zap.String("doc_id", doc.ID),
				zap.Strings("chunk_ids", stale),
				zap.Error(err),
			)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	inputs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		inputs = append(inputs, c.EmbeddingInput())
	}
	vectors, info, err := s.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "embed_chunks",
		Inputs:    inputs,
		Dimension: s.dim,
	})
	if err != nil {
		return fmt.Errorf("embed chunks for %s: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks for %s: got %d vectors for %d chunks", doc.ID, len(vectors), len(chunks))
	}

	entries := make([]vector.Entry, 0, len(chunks))
	for i, c := range chunks {
		entries = append(entries, vector.Entry{
			ChunkID:    c.ID,
			DocumentID: doc.ID,
			Title:      doc.Title,
			SourceKind: doc.SourceKind,
			Vector:     vectors[i],
		})
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		return err
	}
	s.logger.Info("document stored",
		zap.String("doc_id", doc.ID),
		zap.String("source", string(doc.SourceKind)),
		zap.Int("chunks", len(chunks)),
		zap.String("embed_provider", info.Name),
	)
	return nil
}

// Search returns the k chunks nearest to query. Index entries whose chunk is
// gone from the relational store are skipped.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}
	vectors, _, err := s.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "embed_query",
		Inputs:    []string{query},
		Dimension: s.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	matches, err := s.index.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}

	out := make([]models.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		c, err := s.repo.GetChunk(ctx, m.ChunkID)
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("skipping orphan vector", zap.String("chunk_id", m.ChunkID))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.RetrievalResult{
			ChunkID:            m.ChunkID,
			DocumentID:         m.DocumentID,
			Title:              m.Title,
			SourceKind:         m.SourceKind,
			Score:              m.Score,
			ConversationalText: c.ConversationalText,
			KeyDetails:         c.KeyDetails,
			SourceExtract:      c.SourceExtract,
			FAQ:                c.FAQ,
		})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, docID string) (DeleteReport, error) {
	chunkIDs, err := s.repo.DeleteDocument(ctx, docID)
	if err != nil {
		return DeleteReport{}, fmt.Errorf("delete document %s: %w", docID, err)
	}
	report := DeleteReport{DocumentID: docID, ChunkIDs: chunkIDs}
	if err := s.index.DeleteDocument(ctx, docID); err != nil {
		s.logger.Warn("vector cleanup failed", zap.String("doc_id", docID), zap.Error(err))
		report.Warning = "vector index cleanup failed: " + err.Error()
	}
	return report, nil
}

func (s *Store) DeleteChunk(ctx context.Context, chunkID string) (DeleteReport, error) {
	docID, err := s.repo.DeleteChunk(ctx, chunkID)
	if err != nil {
		return DeleteReport{}, fmt.Errorf("delete chunk %s: %w", chunkID, err)
	}
	report := DeleteReport{DocumentID: docID, ChunkIDs: []string{chunkID}}
	if err := s.index.Delete(ctx, []string{chunkID}); err != nil {
		s.logger.Warn("vector cleanup failed", zap.String("chunk_id", chunkID), zap.Error(err))
		report.Warning = "vector index cleanup failed: " + err.Error()
	}
	return report, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.repo.ListDocuments(ctx)
}

func (s *Store) GetDocument(ctx context.Context, id string) (models.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

func (s *Store) ListChunks(ctx context.Context, docID string) ([]models.Chunk, error) {
	return s.repo.ListChunks(ctx, docID)
}

func (s *Store) GetChunk(ctx context.Context, id string) (models.Chunk, error) {
	return s.repo.GetChunk(ctx, id)
}
