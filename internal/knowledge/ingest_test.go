package knowledge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"voxlit/internal/models"
	"voxlit/internal/providers"
	"voxlit/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	text string
	err  error
	reqs []providers.GenerateRequest
}

func (s *scriptedLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.reqs = append(s.reqs, req)
	return providers.GenerateResponse{Text: s.text}, providers.ProviderInfo{Name: "scripted"}, s.err
}

func TestDocumentIDIsDeterministic(t *testing.T) {
	a := DocumentID(models.SourceWeb, "q", "out")
	b := DocumentID(models.SourceWeb, "q", "out")
	c := DocumentID(models.SourceWeb, "q", "other")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "web:"))
	assert.Len(t, a, len("web:")+16)
}

func TestIngestToolResult(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(vector.NewMemoryIndex())
	ing := NewIngestor(store, FixedChunker{Size: 40, Overlap: 0}, nil)

	res := models.ToolResult{
		Tool:       "SEARCH_WEB",
		SourceKind: models.SourceWeb,
		Query:      "attention",
		Output:     strings.Repeat("Attention is all you need. ", 4),
		CreatedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	report, err := ing.IngestToolResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, DocumentID(models.SourceWeb, res.Query, res.Output), report.DocumentID)
	assert.Greater(t, report.Chunks, 1)

	doc, err := store.GetDocument(ctx, report.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "attention", doc.Title)
	assert.Equal(t, "SEARCH_WEB", doc.Metadata["tool"])

	c, err := store.GetChunk(ctx, report.DocumentID+":0")
	require.NoError(t, err)
	assert.Equal(t, report.DocumentID, c.DocumentID)

	again, err := ing.IngestToolResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, report, again)
	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngestTextRejectsEmpty(t *testing.T) {
	store, _ := newTestStore(vector.NewMemoryIndex())
	ing := NewIngestor(store, FixedChunker{}, nil)
	_, err := ing.IngestText(context.Background(), "pdf:x", "x", models.SourcePDF, " \x00 ", nil)
	require.Error(t, err)
}

func TestLLMChunkerParsesList(t *testing.T) {
	llm := &scriptedLLM{text: "Here you go:\n[{\"id\":\"1\",\"conversational\":\"intro\",\"key_details\":[\"k\"],\"source_extract\":\"raw\",\"faq\":[{\"q\":\"why\",\"a\":\"because\"}]}]\nthanks"}
	chunks, err := NewLLMChunker(llm, FixedChunker{Size: 10}, nil).Chunk(context.Background(), "raw text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "intro", chunks[0].ConversationalText)
	assert.Equal(t, []string{"k"}, chunks[0].KeyDetails)
	assert.Equal(t, []models.FAQ{{Q: "why", A: "because"}}, chunks[0].FAQ)
	require.Len(t, llm.reqs, 1)
	assert.Equal(t, "chunk", llm.reqs[0].Operation)
	assert.Equal(t, []string{"raw text"}, llm.reqs[0].Context)
}

func TestLLMChunkerFallsBack(t *testing.T) {
	for name, llm := range map[string]*scriptedLLM{
		"error":   {err: errors.New("boom")},
		"garbage": {text: "no list here"},
		"bad":     {text: "[not json]"},
		"empty":   {text: "[]"},
	} {
		chunks, err := NewLLMChunker(llm, FixedChunker{Size: 5}, nil).Chunk(context.Background(), "abcdefghij")
		require.NoError(t, err, name)
		assert.Len(t, chunks, 2, name)
		assert.Equal(t, "abcde", chunks[0].SourceExtract, name)
	}
}

func TestLLMChunkerWithMockProvider(t *testing.T) {
	chunks, err := NewLLMChunker(providers.NewMockProvider(8), FixedChunker{}, nil).Chunk(context.Background(), "some pdf text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "some pdf text", chunks[0].SourceExtract)
}

func TestToolResultDocumentFallsBackToToolName(t *testing.T) {
	doc := ToolResultDocument(models.ToolResult{Tool: "EXECUTE_CODE", SourceKind: models.SourcePython, Output: "Code:\nx\n\nResult:\n1"})
	assert.Equal(t, "EXECUTE_CODE", doc.Title)
	assert.True(t, strings.HasPrefix(doc.ID, "python:"))
}

func TestPrepareAssignsPositionalIDs(t *testing.T) {
	store, _ := newTestStore(vector.NewMemoryIndex())
	ing := NewIngestor(store, FixedChunker{Size: 4}, nil)
	chunks, err := ing.Prepare(context.Background(), "pdf:abc", "abcdefghij")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for n, c := range chunks {
		assert.Equal(t, "pdf:abc", c.DocumentID)
		assert.Equal(t, "pdf:abc:"+strconv.Itoa(n), c.ID)
	}
}

func TestIngestPDFRejectsGarbage(t *testing.T) {
	store, _ := newTestStore(vector.NewMemoryIndex())
	ing := NewIngestor(store, FixedChunker{}, nil)
	_, err := ing.IngestPDF(context.Background(), []byte("not a pdf"), "x.pdf")
	require.Error(t, err)
	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPDFDocumentIDUsesContent(t *testing.T) {
	assert.Equal(t, PDFDocumentID([]byte("a")), PDFDocumentID([]byte("a")))
	assert.NotEqual(t, PDFDocumentID([]byte("a")), PDFDocumentID([]byte("b")))
	assert.True(t, strings.HasPrefix(PDFDocumentID([]byte("a")), "pdf:"))
	assert.Len(t, PDFDocumentID([]byte("a")), len("pdf:")+16)

	streamed, err := PDFDocumentIDReader(strings.NewReader("a"))
	require.NoError(t, err)
	assert.Equal(t, PDFDocumentID([]byte("a")), streamed)
}

func TestFetchPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/papers/attention.pdf" {
			_, _ = w.Write([]byte("%PDF-1.4 body"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	data, name, err := FetchPDF(context.Background(), srv.Client(), srv.URL+"/papers/attention.pdf")
	require.NoError(t, err)
	assert.Equal(t, "attention.pdf", name)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	_, _, err = FetchPDF(context.Background(), srv.Client(), srv.URL+"/missing.pdf")
	require.Error(t, err)

	_, _, err = FetchPDF(context.Background(), srv.Client(), "ftp://example.com/a.pdf")
	require.Error(t, err)
}
