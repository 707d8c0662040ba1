package knowledge

import (
	"context"
	"errors"
	"testing"

	"voxlit/internal/models"
	"voxlit/internal/providers"
	"voxlit/internal/storage"
	"voxlit/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingIndex struct {
	*vector.MemoryIndex
}

func (failingIndex) DeleteDocument(context.Context, string) error {
	return errors.New("index offline")
}

func (failingIndex) Delete(context.Context, []string) error {
	return errors.New("index offline")
}

func newTestStore(index VectorIndex) (*Store, *storage.MemoryRepo) {
	repo := storage.NewMemoryRepo()
	return NewStore(repo, index, providers.NewMockProvider(32), 32, nil), repo
}

func sampleChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "web:1:0", ConversationalText: "Transformers use attention", SourceExtract: "Attention is all you need."},
		{ID: "web:1:1", ConversationalText: "Bananas are yellow", SourceExtract: "Fruit facts."},
	}
}

func TestStoreUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(vector.NewMemoryIndex())
	doc := models.Document{ID: "web:1", Title: "Attention", SourceKind: models.SourceWeb}
	require.NoError(t, store.Upsert(ctx, doc, sampleChunks()))

	results, err := store.Search(ctx, "Transformers use attention\nAttention is all you need.", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "web:1:0", results[0].ChunkID)
	assert.Equal(t, "web:1", results[0].DocumentID)
	assert.Equal(t, models.SourceWeb, results[0].SourceKind)
	assert.Equal(t, "Attention", results[0].Title)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	index := vector.NewMemoryIndex()
	store, _ := newTestStore(index)
	doc := models.Document{ID: "web:1", Title: "Attention", SourceKind: models.SourceWeb}
	require.NoError(t, store.Upsert(ctx, doc, sampleChunks()))
	require.NoError(t, store.Upsert(ctx, doc, sampleChunks()))

	chunks, err := store.ListChunks(ctx, "web:1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, 2, index.Len())
}

func TestStoreReingestDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	index := vector.NewMemoryIndex()
	store, _ := newTestStore(index)
	doc := models.Document{ID: "pdf:x", Title: "Report", SourceKind: models.SourcePDF}
	require.NoError(t, store.Upsert(ctx, doc, []models.Chunk{
		{ID: "pdf:x:0", ConversationalText: "Transformers use attention"},
		{ID: "pdf:x:1", ConversationalText: "Bananas are yellow"},
	}))
	require.Equal(t, 2, index.Len())

	require.NoError(t, store.Upsert(ctx, doc, []models.Chunk{
		{ID: "pdf:x:0", ConversationalText: "Transformers use attention"},
	}))

	chunks, err := store.ListChunks(ctx, "pdf:x")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	_, err = store.GetChunk(ctx, "pdf:x:1")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, index.Len())

	results, err := store.Search(ctx, "Bananas are yellow", 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "pdf:x:1", r.ChunkID)
	}
}

func TestStoreReingestWithNoChunksClearsDocument(t *testing.T) {
	ctx := context.Background()
	index := vector.NewMemoryIndex()
	store, _ := newTestStore(index)
	doc := models.Document{ID: "web:1", SourceKind: models.SourceWeb}
	require.NoError(t, store.Upsert(ctx, doc, sampleChunks()))
	require.NoError(t, store.Upsert(ctx, doc, nil))

	chunks, err := store.ListChunks(ctx, "web:1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, index.Len())
}

func TestStoreRejectsForeignChunk(t *testing.T) {
	store, _ := newTestStore(vector.NewMemoryIndex())
	err := store.Upsert(context.Background(),
		models.Document{ID: "a", SourceKind: models.SourcePDF},
		[]models.Chunk{{ID: "b:0", DocumentID: "b"}})
	require.Error(t, err)
}

func TestStoreSearchSkipsOrphanVectors(t *testing.T) {
	ctx := context.Background()
	index := vector.NewMemoryIndex()
	store, _ := newTestStore(index)
	require.NoError(t, store.Upsert(ctx, models.Document{ID: "pdf:1", SourceKind: models.SourcePDF}, sampleChunks()[:1]))

	vecs, _, err := providers.NewMockProvider(32).Embed(ctx, providers.EmbedRequest{Inputs: []string{"ghost"}, Dimension: 32})
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, []vector.Entry{{ChunkID: "ghost:0", DocumentID: "ghost", Vector: vecs[0]}}))

	results, err := store.Search(ctx, "ghost", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "web:1:0", results[0].ChunkID)
}

func TestStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	index := vector.NewMemoryIndex()
	store, _ := newTestStore(index)
	require.NoError(t, store.Upsert(ctx, models.Document{ID: "web:1", SourceKind: models.SourceWeb}, sampleChunks()))

	report, err := store.Delete(ctx, "web:1")
	require.NoError(t, err)
	assert.Empty(t, report.Warning)
	assert.ElementsMatch(t, []string{"web:1:0", "web:1:1"}, report.ChunkIDs)
	assert.Equal(t, 0, index.Len())

	_, err = store.GetChunk(ctx, "web:1:0")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Delete(ctx, "web:1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDeleteReportsIndexWarning(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(failingIndex{vector.NewMemoryIndex()})
	require.NoError(t, store.Upsert(ctx, models.Document{ID: "web:1", SourceKind: models.SourceWeb}, sampleChunks()))

	report, err := store.Delete(ctx, "web:1")
	require.NoError(t, err)
	assert.Contains(t, report.Warning, "index offline")
	_, err = store.GetDocument(ctx, "web:1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDeleteChunk(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(vector.NewMemoryIndex())
	require.NoError(t, store.Upsert(ctx, models.Document{ID: "web:1", SourceKind: models.SourceWeb}, sampleChunks()))

	report, err := store.DeleteChunk(ctx, "web:1:1")
	require.NoError(t, err)
	assert.Equal(t, "web:1", report.DocumentID)
	_, err = store.DeleteChunk(ctx, "web:1:1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSearchEmptyQuery(t *testing.T) {
	store, _ := newTestStore(vector.NewMemoryIndex())
	results, err := store.Search(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
