package workflows

import (
	"path/filepath"
	"strings"
	"time"

	"voxlit/internal/activities"
	"voxlit/internal/knowledge"
	"voxlit/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetIngestStatus = "GetIngestStatus"

	StatusIngested = "ingested"
	StatusFailed   = "failed"
)

func activityOptions(timeout time.Duration, attempts int32) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    attempts,
		},
	}
}

// PersistToolResultWorkflow chunks a tool result and writes it to both
// stores.
func PersistToolResultWorkflow(ctx workflow.Context, input PersistToolResultInput) (IngestResult, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions(2*time.Minute, 3))
	doc := knowledge.ToolResultDocument(input.Result)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = workflow.Now(ctx).UTC()
	}

	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{DocumentID: doc.ID, Text: input.Result.Output}).Get(ctx, &chunkOut); err != nil {
		return IngestResult{}, err
	}
	var upsertOut activities.UpsertDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "UpsertDocumentActivity", activities.UpsertDocumentInput{Document: doc, Chunks: chunkOut.Chunks}).Get(ctx, &upsertOut); err != nil {
		return IngestResult{}, err
	}
	return IngestResult{DocumentID: upsertOut.DocumentID, Chunks: upsertOut.Chunks, Status: StatusIngested}, nil
}

// DocumentIngestWorkflow extracts, chunks and stores a PDF. A PDF with no
// extractable text completes with status failed rather than erroring.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (IngestResult, error) {
	status := IngestStatus{CurrentStep: "init", Status: "processing", Steps: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestStatus, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return IngestResult{}, err
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions(5*time.Minute, 2))

	begin := func(step string) {
		status.CurrentStep = step
		status.Steps[step] = "processing"
	}
	done := func() { status.Steps[status.CurrentStep] = "done" }
	fail := func(reason string) (IngestResult, error) {
		status.Status = StatusFailed
		status.FailReason = reason
		status.Steps[status.CurrentStep] = StatusFailed
		return IngestResult{DocumentID: status.DocumentID, Status: StatusFailed, FailReason: reason}, nil
	}

	path := input.Path
	title := strings.TrimSpace(input.Title)
	if path == "" {
		begin("fetch_pdf")
		var fetchOut activities.FetchPDFOutput
		if err := workflow.ExecuteActivity(ctx, "FetchPDFActivity", activities.FetchPDFInput{URL: input.URL}).Get(ctx, &fetchOut); err != nil {
			return IngestResult{}, err
		}
		path = fetchOut.Path
		if title == "" {
			title = fetchOut.Filename
		}
		done()
	}
	if title == "" {
		title = filepath.Base(path)
	}

	begin("compute_doc_id")
	var idOut activities.ComputeDocumentIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeDocumentIDActivity", activities.ComputeDocumentIDInput{Path: path}).Get(ctx, &idOut); err != nil {
		return IngestResult{}, err
	}
	status.DocumentID = idOut.DocumentID
	done()

	begin("extract_text")
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{Path: path}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			return fail("no extractable text found (OCR not enabled)")
		}
		return IngestResult{}, err
	}
	done()

	begin("chunk_text")
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{DocumentID: idOut.DocumentID, Text: textOut.Text}).Get(ctx, &chunkOut); err != nil {
		return IngestResult{}, err
	}
	done()

	begin("upsert_document")
	doc := models.Document{
		ID:         idOut.DocumentID,
		Title:      title,
		SourceKind: models.SourcePDF,
		Metadata:   documentMeta(input, title, textOut.Text),
		CreatedAt:  workflow.Now(ctx).UTC(),
	}
	var upsertOut activities.UpsertDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "UpsertDocumentActivity", activities.UpsertDocumentInput{Document: doc, Chunks: chunkOut.Chunks}).Get(ctx, &upsertOut); err != nil {
		if isInvalidTextEncodingError(err) {
			return fail("document contains invalid text encoding after extraction")
		}
		return IngestResult{}, err
	}
	done()

	begin("write_artifacts")
	if err := workflow.ExecuteActivity(ctx, "WriteDocumentArtifactsActivity", activities.WriteDocumentArtifactsInput{
		DocumentID: idOut.DocumentID,
		Text:       textOut.Text,
		Chunks:     chunkOut.Chunks,
		Log:        map[string]any{"status": StatusIngested, "steps": status.Steps, "generated_at": workflow.Now(ctx)},
	}).Get(ctx, nil); err != nil {
		status.Steps[status.CurrentStep] = StatusFailed
	} else {
		done()
	}

	status.CurrentStep = "done"
	status.Status = StatusIngested
	return IngestResult{DocumentID: upsertOut.DocumentID, Chunks: upsertOut.Chunks, Status: StatusIngested}, nil
}

func documentMeta(input DocumentIngestInput, title, text string) map[string]any {
	meta := map[string]any{"filename": title, "length": len([]rune(text))}
	if input.URL != "" {
		meta["url"] = input.URL
	}
	return meta
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isInvalidTextEncodingError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "invalid byte sequence") || strings.Contains(e, "sqlstate 22021")
}
