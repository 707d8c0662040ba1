package storage

import (
	"context"
	"fmt"
	"sync"
)

type LLMCallRecord struct {
	CallID       string
	Operation    string
	SessionID    string
	ProviderName string
	Model        string
	Status       string
	ErrorType    string
	LatencyMS    int64
}

// AuditRecorder stores one row per model call.
type AuditRecorder interface {
	Insert(ctx context.Context, rec LLMCallRecord) error
}

type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec LLMCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls(call_id, operation, session_id, provider_name, model, status, error_type, latency_ms)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, NULLIF($3,''), $4, $5, $6, NULLIF($7,''), $8)`,
		rec.CallID, rec.Operation, rec.SessionID, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

// MemoryAuditRepo keeps the most recent calls in process.
type MemoryAuditRepo struct {
	mu    sync.Mutex
	limit int
	calls []LLMCallRecord
}

func NewMemoryAuditRepo(limit int) *MemoryAuditRepo {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryAuditRepo{limit: limit}
}

func (r *MemoryAuditRepo) Insert(_ context.Context, rec LLMCallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rec)
	if len(r.calls) > r.limit {
		r.calls = append([]LLMCallRecord(nil), r.calls[len(r.calls)-r.limit:]...)
	}
	return nil
}

func (r *MemoryAuditRepo) Calls() []LLMCallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LLMCallRecord(nil), r.calls...)
}
