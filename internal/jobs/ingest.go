package jobs

import (
	"context"
	"net/http"

	"voxlit/internal/knowledge"
	"voxlit/internal/models"

	"go.uber.org/zap"
)

// Upload is an accepted PDF waiting to be ingested.
type Upload struct {
	Data     []byte
	Filename string
}

// IngestQueues persists tool results, linked PDFs and uploads in process.
// It is the counterpart of the Temporal sink when no Temporal cluster is
// configured.
type IngestQueues struct {
	results *Queue[models.ToolResult]
	links   *Queue[string]
	uploads *Queue[Upload]
}

func NewIngestQueues(ing *knowledge.Ingestor, client *http.Client, size, workers int, logger *zap.Logger) *IngestQueues {
	return &IngestQueues{
		results: NewQueue("tool_results", size, workers, func(ctx context.Context, r models.ToolResult) error {
			_, err := ing.IngestToolResult(ctx, r)
			return err
		}, logger),
		links: NewQueue("pdf_links", size, 1, func(ctx context.Context, url string) error {
			_, err := ing.IngestPDFURL(ctx, client, url)
			return err
		}, logger),
		uploads: NewQueue("pdf_uploads", size, 1, func(ctx context.Context, u Upload) error {
			_, err := ing.IngestPDF(ctx, u.Data, u.Filename)
			return err
		}, logger),
	}
}

func (q *IngestQueues) Start(ctx context.Context) {
	q.results.Start(ctx)
	q.links.Start(ctx)
	q.uploads.Start(ctx)
}

func (q *IngestQueues) Enqueue(ctx context.Context, r models.ToolResult) error {
	return q.results.Enqueue(ctx, r)
}

func (q *IngestQueues) EnqueueURL(ctx context.Context, url string) error {
	return q.links.Enqueue(ctx, url)
}

func (q *IngestQueues) EnqueuePDF(ctx context.Context, data []byte, filename string) (string, error) {
	if err := q.uploads.Enqueue(ctx, Upload{Data: data, Filename: filename}); err != nil {
		return "", err
	}
	return knowledge.PDFDocumentID(data), nil
}

func (q *IngestQueues) Drain() {
	q.results.Drain()
	q.links.Drain()
	q.uploads.Drain()
}

func (q *IngestQueues) Close() {
	q.results.Close()
	q.links.Close()
	q.uploads.Close()
}
