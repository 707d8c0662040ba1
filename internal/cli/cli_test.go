package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxlit/internal/app"
	"voxlit/internal/config"
	"voxlit/internal/knowledge"
	"voxlit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func seeded(t *testing.T) *app.Knowledge {
	t.Helper()
	cfg := config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 16, ChunkSize: 64}
	kb, err := app.BuildKnowledge(context.Background(), cfg, false, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = kb.Ingestor.IngestText(context.Background(), "pdf:abc", "notes.pdf", models.SourcePDF, "attention is all you need", nil)
	require.NoError(t, err)
	_, err = kb.Ingestor.IngestText(context.Background(), "web:xyz", "bananas", models.SourceWeb, "bananas are yellow", nil)
	require.NoError(t, err)
	return kb
}

func execute(t *testing.T, kb *app.Knowledge, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func(context.Context) (*app.Knowledge, error) { return kb, nil })
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestDocsListJSON(t *testing.T) {
	out, err := execute(t, seeded(t), "--json", "docs", "list")
	require.NoError(t, err)

	var docs []models.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
}

func TestDocsGetText(t *testing.T) {
	out, err := execute(t, seeded(t), "docs", "get", "pdf:abc")
	require.NoError(t, err)
	assert.Contains(t, out, "ID: pdf:abc")
	assert.Contains(t, out, "Title: notes.pdf")
	assert.Contains(t, out, "Source: pdf")
}

func TestDocsGetMissing(t *testing.T) {
	_, err := execute(t, seeded(t), "docs", "get", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, knowledge.ErrNotFound))
}

func TestDocsDelete(t *testing.T) {
	kb := seeded(t)
	out, err := execute(t, kb, "docs", "delete", "pdf:abc")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted pdf:abc (1 chunks)")

	docs, err := kb.Store.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "web:xyz", docs[0].ID)
}

func TestChunksListByDocument(t *testing.T) {
	kb := seeded(t)
	out, err := execute(t, kb, "--json", "chunks", "list", "--doc", "web:xyz")
	require.NoError(t, err)

	var chunks []models.Chunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 1)
	assert.Equal(t, "web:xyz:0", chunks[0].ID)

	out, err = execute(t, kb, "chunks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 chunks")
}

func TestChunksGetAndDelete(t *testing.T) {
	kb := seeded(t)
	out, err := execute(t, kb, "chunks", "get", "pdf:abc:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Doc ID: pdf:abc")

	out, err = execute(t, kb, "chunks", "delete", "pdf:abc:0")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted chunk pdf:abc:0 of pdf:abc")

	_, err = kb.Store.GetChunk(context.Background(), "pdf:abc:0")
	assert.True(t, errors.Is(err, knowledge.ErrNotFound))
}

func TestSearch(t *testing.T) {
	kb := seeded(t)
	out, err := execute(t, kb, "--json", "search", "bananas", "are", "yellow", "--k", "1")
	require.NoError(t, err)

	var results []models.RetrievalResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)

	out, err = execute(t, kb, "search", "bananas")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [")
	assert.Contains(t, out, "> ")

	_, err = execute(t, kb, "search", "x", "--k", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--k")
}

func TestDumpText(t *testing.T) {
	out, err := execute(t, seeded(t), "dump")
	require.NoError(t, err)
	docs := strings.Index(out, "=== DOCUMENTS ===")
	chunks := strings.Index(out, "=== CHUNKS ===")
	require.GreaterOrEqual(t, docs, 0)
	require.Greater(t, chunks, docs)
	assert.Contains(t, out[chunks:], "Chunk ID: web:xyz:0")
}

func TestDumpToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.jsonl")
	out, err := execute(t, seeded(t), "dump", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 documents")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var row dumpRow
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.NotEmpty(t, row.Document.ID)
	assert.Len(t, row.Chunks, 1)
}

func TestIngestRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))
	_, err := execute(t, seeded(t), "ingest", path)
	require.Error(t, err)
}

func TestOpenError(t *testing.T) {
	root := NewRootCommand(func(context.Context) (*app.Knowledge, error) { return nil, app.ErrNoDatabase })
	root.SetArgs([]string{"docs", "list"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	assert.True(t, errors.Is(err, app.ErrNoDatabase))
}
