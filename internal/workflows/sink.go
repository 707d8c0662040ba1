package workflows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voxlit/internal/knowledge"
	"voxlit/internal/models"
	"voxlit/internal/util"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// Starter is the slice of client.Client the sink needs.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

const defaultStartTimeout = 30 * time.Second

// TemporalSink hands persistence work to Temporal. Tool results and links
// are started in the background, bounded by startTimeout.
type TemporalSink struct {
	client       Starter
	taskQueue    string
	dataInRoot   string
	startTimeout time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
}

func NewTemporalSink(c Starter, taskQueue, dataInRoot string, logger *zap.Logger) *TemporalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemporalSink{
		client:       c,
		taskQueue:    taskQueue,
		dataInRoot:   dataInRoot,
		startTimeout: defaultStartTimeout,
		logger:       logger.Named("temporal_sink"),
	}
}

// Enqueue returns at once; a failed start is logged.
func (s *TemporalSink) Enqueue(ctx context.Context, r models.ToolResult) error {
	docID := knowledge.ToolResultDocument(r).ID
	s.startAsync(ctx, "persist-"+util.FileKey(docID), PersistToolResultWorkflow, PersistToolResultInput{Result: r})
	return nil
}

func (s *TemporalSink) EnqueueURL(ctx context.Context, url string) error {
	s.startAsync(ctx, "ingest-url-"+uuid.NewString(), DocumentIngestWorkflow, DocumentIngestInput{URL: url})
	return nil
}

// EnqueuePDF stores the upload under the data root so the worker can read
// it, then starts the ingest workflow. Unlike Enqueue it waits for the
// start, since the upload response reports it.
func (s *TemporalSink) EnqueuePDF(ctx context.Context, data []byte, filename string) (string, error) {
	docID := knowledge.PDFDocumentID(data)
	path := util.SafeJoin(s.dataInRoot, util.FileKey(docID)+".pdf")
	if err := util.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	in := DocumentIngestInput{Path: path, Title: filename}
	if err := s.start(ctx, "ingest-"+util.FileKey(docID)+"-"+uuid.NewString()[:8], DocumentIngestWorkflow, in); err != nil {
		return "", err
	}
	return docID, nil
}

// Wait blocks until background starts have finished.
func (s *TemporalSink) Wait() {
	s.wg.Wait()
}

func (s *TemporalSink) startAsync(ctx context.Context, id string, wf interface{}, input any) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.startTimeout)
		defer cancel()
		if err := s.start(ctx, id, wf, input); err != nil {
			s.logger.Error("workflow start failed", zap.String("workflow_id", id), zap.Error(err))
		}
	}()
}

func (s *TemporalSink) start(ctx context.Context, id string, wf interface{}, input any) error {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    id,
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, wf, input)
	if err != nil {
		return fmt.Errorf("start workflow %s: %w", id, err)
	}
	s.logger.Info("workflow started", zap.String("workflow_id", run.GetID()), zap.String("run_id", run.GetRunID()))
	return nil
}
