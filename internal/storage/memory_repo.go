package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"voxlit/internal/models"
)

// MemoryRepo is the in-process DocumentRepo used when no Postgres URL is
// configured and in tests. Values are deep-copied in and out.
type MemoryRepo struct {
	mu        sync.RWMutex
	docs      map[string]models.Document
	chunks    map[string]models.Chunk
	positions map[string]int
	now       func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[string]models.Document),
		chunks:    make(map[string]models.Chunk),
		positions: make(map[string]int),
		now:       time.Now,
	}
}

func (r *MemoryRepo) UpsertDocument(_ context.Context, d models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.docs[d.ID]; ok {
		d.CreatedAt = prev.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now().UTC()
	}
	r.docs[d.ID] = copyDocument(d)
	return nil
}

// ReplaceChunks makes chunks the complete chunk set of docID and returns the
// ids of the previous chunks that are gone.
func (r *MemoryRepo) ReplaceChunks(_ context.Context, docID string, chunks []models.Chunk) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[docID]; !ok {
		return nil, ErrNotFound
	}
	keep := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if c.DocumentID != docID {
			return nil, fmt.Errorf("chunk %s belongs to %s, not %s", c.ID, c.DocumentID, docID)
		}
		keep[c.ID] = true
	}
	var stale []string
	for id, c := range r.chunks {
		if c.DocumentID == docID && !keep[id] {
			stale = append(stale, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return r.positions[stale[i]] < r.positions[stale[j]] })
	for _, id := range stale {
		delete(r.chunks, id)
		delete(r.positions, id)
	}
	for i, c := range chunks {
		r.chunks[c.ID] = copyChunk(c)
		r.positions[c.ID] = i
	}
	return stale, nil
}

func (r *MemoryRepo) ListDocuments(_ context.Context) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, copyDocument(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) GetDocument(_ context.Context, id string) (models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return models.Document{}, ErrNotFound
	}
	return copyDocument(d), nil
}

func (r *MemoryRepo) ListChunks(_ context.Context, docID string) ([]models.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Chunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		if docID != "" && c.DocumentID != docID {
			continue
		}
		out = append(out, copyChunk(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return r.positions[out[i].ID] < r.positions[out[j].ID]
	})
	return out, nil
}

func (r *MemoryRepo) GetChunk(_ context.Context, id string) (models.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunks[id]
	if !ok {
		return models.Chunk{}, ErrNotFound
	}
	return copyChunk(c), nil
}

func (r *MemoryRepo) DeleteDocument(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return nil, ErrNotFound
	}
	delete(r.docs, id)
	var removed []string
	for cid, c := range r.chunks {
		if c.DocumentID == id {
			removed = append(removed, cid)
			delete(r.chunks, cid)
			delete(r.positions, cid)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

func (r *MemoryRepo) DeleteChunk(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chunks[id]
	if !ok {
		return "", ErrNotFound
	}
	delete(r.chunks, id)
	delete(r.positions, id)
	return c.DocumentID, nil
}

func copyDocument(d models.Document) models.Document {
	if d.Metadata != nil {
		meta := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
		d.Metadata = meta
	}
	return d
}

func copyChunk(c models.Chunk) models.Chunk {
	if c.KeyDetails != nil {
		c.KeyDetails = append([]string(nil), c.KeyDetails...)
	}
	if c.FAQ != nil {
		c.FAQ = append([]models.FAQ(nil), c.FAQ...)
	}
	return c
}
