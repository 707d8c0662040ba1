// Package app wires the knowledge stack shared by the service binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voxlit/internal/config"
	"voxlit/internal/knowledge"
	"voxlit/internal/providers"
	"voxlit/internal/storage"
	"voxlit/internal/vector"

	"go.uber.org/zap"
)

var ErrNoDatabase = errors.New("VOXLIT_POSTGRES_URL is not set")

type Knowledge struct {
	Providers *providers.Manager
	Store     *knowledge.Store
	Ingestor  *knowledge.Ingestor
	Audit     storage.AuditRecorder
	// DB is nil for the in-memory backend.
	DB *storage.DB
}

func (k *Knowledge) Close() {
	k.DB.Close()
}

// Ping checks the relational store; the in-memory backend is always up.
func (k *Knowledge) Ping(ctx context.Context) error {
	if k.DB == nil {
		return nil
	}
	return k.DB.Pool.Ping(ctx)
}

// BuildKnowledge connects to Postgres when configured and otherwise keeps
// everything in memory. requireDB rejects the in-memory fallback.
func BuildKnowledge(ctx context.Context, cfg config.Config, requireDB bool, logger *zap.Logger) (*Knowledge, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	k := &Knowledge{Providers: pm}

	var (
		repo  knowledge.DocumentRepository
		index knowledge.VectorIndex
	)
	if cfg.PostgresURL == "" {
		if requireDB {
			return nil, ErrNoDatabase
		}
		logger.Warn("no postgres configured, knowledge is kept in memory")
		repo = storage.NewMemoryRepo()
		index = vector.NewMemoryIndex()
		k.Audit = storage.NewMemoryAuditRepo(1000)
	} else {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := storage.NewDB(connectCtx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(connectCtx, cfg.EmbedDim); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		k.DB = db
		repo = storage.NewDocumentRepo(db)
		index = vector.NewPGIndex(db.Pool)
		k.Audit = storage.NewLLMAuditRepo(db)
	}

	k.Store = knowledge.NewStore(repo, index, pm, pm.EmbedDim(), logger)
	fixed := knowledge.FixedChunker{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	var chunker knowledge.Chunker = fixed
	if cfg.LLMChunking {
		chunker = knowledge.NewLLMChunker(pm, fixed, logger)
	}
	k.Ingestor = knowledge.NewIngestor(k.Store, chunker, logger)
	return k, nil
}
