package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force cosine index for single-process use.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Entry)}
}

func (m *MemoryIndex) Upsert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("upsert vector %s: empty embedding", e.ChunkID)
		}
		e.Vector = append([]float32(nil), e.Vector...)
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, queryVec []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	m.mu.RLock()
	out := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		if len(e.Vector) != len(queryVec) {
			continue
		}
		out = append(out, Match{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Title:      e.Title,
			SourceKind: e.SourceKind,
			Score:      cosine(queryVec, e.Vector),
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ChunkID < out[j].ChunkID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *MemoryIndex) Delete(_ context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chunkIDs {
		delete(m.entries, id)
	}
	return nil
}

func (m *MemoryIndex) DeleteDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.DocumentID == docID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
