package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voxlit/internal/models"
	"voxlit/internal/util"

	"go.uber.org/zap"
)

type Report struct {
	DocumentID string `json:"doc_id"`
	Chunks     int    `json:"chunks"`
}

// Ingestor turns tool results and raw text into stored documents.
type Ingestor struct {
	store   *Store
	chunker Chunker
	logger  *zap.Logger
}

func NewIngestor(store *Store, chunker Chunker, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: store, chunker: chunker, logger: logger.Named("ingest")}
}

// DocumentID derives a stable id from the result so the same query and
// output always land on the same document.
func DocumentID(kind models.SourceKind, query, output string) string {
	return string(kind) + ":" + util.ShortHash([]byte(query+"|"+output))
}

// ToolResultDocument builds the document a tool result is stored under.
// It is pure so workflow code can call it.
func ToolResultDocument(r models.ToolResult) models.Document {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = util.DisplaySnippet(r.Query, 120)
	}
	if title == "" {
		title = r.Tool
	}
	return models.Document{
		ID:         DocumentID(r.SourceKind, r.Query, r.Output),
		Title:      title,
		SourceKind: r.SourceKind,
		Metadata:   map[string]any{"tool": r.Tool, "query": r.Query},
		CreatedAt:  r.CreatedAt,
	}
}

// PDFDocumentID keys an uploaded PDF by its content.
func PDFDocumentID(data []byte) string {
	return string(models.SourcePDF) + ":" + util.ShortHash(data)
}

// PDFDocumentIDReader is PDFDocumentID over a stream.
func PDFDocumentIDReader(r io.Reader) (string, error) {
	h, err := util.ShortHashReader(r)
	if err != nil {
		return "", err
	}
	return string(models.SourcePDF) + ":" + h, nil
}

func (i *Ingestor) IngestToolResult(ctx context.Context, r models.ToolResult) (Report, error) {
	return i.ingest(ctx, ToolResultDocument(r), r.Output)
}

func (i *Ingestor) IngestText(ctx context.Context, docID, title string, kind models.SourceKind, text string, meta map[string]any) (Report, error) {
	return i.ingest(ctx, models.Document{
		ID:         docID,
		Title:      title,
		SourceKind: kind,
		Metadata:   textMeta(meta, text),
	}, text)
}

// IngestPDF extracts and stores an uploaded PDF under its content id.
func (i *Ingestor) IngestPDF(ctx context.Context, data []byte, filename string) (Report, error) {
	text, err := ExtractPDFText(data)
	if err != nil {
		return Report{}, err
	}
	docID := PDFDocumentID(data)
	return i.IngestText(ctx, docID, filename, models.SourcePDF, text, map[string]any{"filename": filename})
}

// IngestPDFURL downloads a linked PDF and ingests it.
func (i *Ingestor) IngestPDFURL(ctx context.Context, client *http.Client, url string) (Report, error) {
	data, filename, err := FetchPDF(ctx, client, url)
	if err != nil {
		return Report{}, err
	}
	text, err := ExtractPDFText(data)
	if err != nil {
		return Report{}, err
	}
	return i.IngestText(ctx, PDFDocumentID(data), filename, models.SourcePDF, text, map[string]any{"filename": filename, "url": url})
}

// Prepare sanitizes and chunks text, assigning positional chunk ids
// under docID.
func (i *Ingestor) Prepare(ctx context.Context, docID, text string) ([]models.Chunk, error) {
	text = util.SanitizeText(text)
	if text == "" {
		return nil, fmt.Errorf("ingest %s: empty text", docID)
	}
	chunks, err := i.chunker.Chunk(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", docID, err)
	}
	for n := range chunks {
		chunks[n].ID = fmt.Sprintf("%s:%d", docID, n)
		chunks[n].DocumentID = docID
	}
	return chunks, nil
}

// Save writes a prepared document and its chunks to the store.
func (i *Ingestor) Save(ctx context.Context, doc models.Document, chunks []models.Chunk) (Report, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if err := i.store.Upsert(ctx, doc, chunks); err != nil {
		return Report{}, err
	}
	i.logger.Info("ingested",
		zap.String("doc_id", doc.ID),
		zap.String("source", string(doc.SourceKind)),
		zap.Int("chunks", len(chunks)),
	)
	return Report{DocumentID: doc.ID, Chunks: len(chunks)}, nil
}

func (i *Ingestor) ingest(ctx context.Context, doc models.Document, text string) (Report, error) {
	chunks, err := i.Prepare(ctx, doc.ID, text)
	if err != nil {
		return Report{}, err
	}
	return i.Save(ctx, doc, chunks)
}

func textMeta(meta map[string]any, text string) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if _, ok := out["length"]; !ok {
		out["length"] = len([]rune(text))
	}
	return out
}
