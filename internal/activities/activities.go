package activities

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"voxlit/internal/config"
	"voxlit/internal/knowledge"
	"voxlit/internal/util"

	"go.uber.org/zap"
)

type Activities struct {
	cfg      config.Config
	ingestor *knowledge.Ingestor
	client   *http.Client
	logger   *zap.Logger
}

func New(cfg config.Config, ingestor *knowledge.Ingestor, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		cfg:      cfg,
		ingestor: ingestor,
		logger:   logger.Named("activities"),
	}
}

// WithHTTPClient overrides the client used to download PDFs.
func (a *Activities) WithHTTPClient(c *http.Client) *Activities {
	a.client = c
	return a
}

func (a *Activities) FetchPDFActivity(ctx context.Context, in FetchPDFInput) (FetchPDFOutput, error) {
	data, filename, err := knowledge.FetchPDF(ctx, a.client, in.URL)
	if err != nil {
		return FetchPDFOutput{}, err
	}
	path := util.SafeJoin(a.cfg.DataInRoot, util.FileKey(knowledge.PDFDocumentID(data))+".pdf")
	if err := util.WriteFileAtomic(path, data); err != nil {
		return FetchPDFOutput{}, err
	}
	a.logger.Info("pdf fetched", zap.String("url", in.URL), zap.String("path", path), zap.Int("bytes", len(data)))
	return FetchPDFOutput{Path: path, Filename: filename}, nil
}

func (a *Activities) ComputeDocumentIDActivity(ctx context.Context, in ComputeDocumentIDInput) (ComputeDocumentIDOutput, error) {
	_ = ctx
	f, err := os.Open(in.Path)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	id, err := knowledge.PDFDocumentIDReader(f)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("hash file: %w", err)
	}
	return ComputeDocumentIDOutput{DocumentID: id}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	text, err := knowledge.ExtractPDFFile(in.Path)
	if err != nil {
		return ExtractTextOutput{}, err
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	chunks, err := a.ingestor.Prepare(ctx, in.DocumentID, in.Text)
	if err != nil {
		return ChunkTextOutput{}, err
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

func (a *Activities) UpsertDocumentActivity(ctx context.Context, in UpsertDocumentInput) (UpsertDocumentOutput, error) {
	report, err := a.ingestor.Save(ctx, in.Document, in.Chunks)
	if err != nil {
		return UpsertDocumentOutput{}, err
	}
	return UpsertDocumentOutput{DocumentID: report.DocumentID, Chunks: report.Chunks}, nil
}

func (a *Activities) WriteDocumentArtifactsActivity(ctx context.Context, in WriteDocumentArtifactsInput) error {
	_ = ctx
	dir := util.SafeJoin(a.cfg.DataOutRoot, util.FileKey(in.DocumentID))
	if err := util.WriteTextAtomic(filepath.Join(dir, "text.txt"), in.Text); err != nil {
		return err
	}
	if err := util.WriteJSONAtomic(filepath.Join(dir, "chunks.json"), in.Chunks); err != nil {
		return err
	}
	return util.WriteJSONAtomic(filepath.Join(dir, "processing_log.json"), in.Log)
}
