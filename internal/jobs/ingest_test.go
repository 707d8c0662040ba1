package jobs

import (
	"context"
	"testing"

	"voxlit/internal/knowledge"
	"voxlit/internal/models"
	"voxlit/internal/providers"
	"voxlit/internal/storage"
	"voxlit/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestQueuesPersistToolResults(t *testing.T) {
	store := knowledge.NewStore(storage.NewMemoryRepo(), vector.NewMemoryIndex(), providers.NewMockProvider(8), 8, nil)
	q := NewIngestQueues(knowledge.NewIngestor(store, knowledge.FixedChunker{Size: 64}, nil), nil, 4, 1, nil)
	ctx := context.Background()
	q.Start(ctx)
	defer q.Close()

	r := models.ToolResult{Tool: "SEARCH_WEB", SourceKind: models.SourceWeb, Query: "go generics", Output: "Source: Go blog\nContent: type parameters"}
	require.NoError(t, q.Enqueue(ctx, r))
	q.Drain()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, knowledge.DocumentID(models.SourceWeb, r.Query, r.Output), docs[0].ID)
}

func TestIngestQueuesUploadReturnsContentID(t *testing.T) {
	store := knowledge.NewStore(storage.NewMemoryRepo(), vector.NewMemoryIndex(), providers.NewMockProvider(8), 8, nil)
	q := NewIngestQueues(knowledge.NewIngestor(store, knowledge.FixedChunker{}, nil), nil, 4, 1, nil)
	ctx := context.Background()
	q.Start(ctx)
	defer q.Close()

	id, err := q.EnqueuePDF(ctx, []byte("garbage"), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, knowledge.PDFDocumentID([]byte("garbage")), id)
	q.Drain()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
