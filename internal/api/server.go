package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voxlit/internal/knowledge"
	"voxlit/internal/models"
	"voxlit/internal/orchestrator"
	"voxlit/internal/synthesis"

	"go.uber.org/zap"
)

const defaultUserID = "default_user"

type Responder interface {
	Respond(ctx context.Context, userID, userText string) orchestrator.Turn
}

type Speaker interface {
	Run(ctx context.Context, fullText string, settings models.VoiceSettings, emit func(synthesis.Record) error) error
}

type Knowledge interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	ListChunks(ctx context.Context, docID string) ([]models.Chunk, error)
	GetChunk(ctx context.Context, id string) (models.Chunk, error)
	Delete(ctx context.Context, docID string) (knowledge.DeleteReport, error)
	DeleteChunk(ctx context.Context, chunkID string) (knowledge.DeleteReport, error)
	Search(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

type PDFIngester interface {
	EnqueuePDF(ctx context.Context, data []byte, filename string) (string, error)
}

type Deps struct {
	Chat      Responder
	Speech    Speaker
	Knowledge Knowledge
	Uploads   PDFIngester
	// Ping reports backing-store health for /healthz. Optional.
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

type Server struct {
	chat    Responder
	speech  Speaker
	kb      Knowledge
	uploads PDFIngester
	ping    func(ctx context.Context) error
	logger  *zap.Logger
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:    d.Chat,
		speech:  d.Speech,
		kb:      d.Knowledge,
		uploads: d.Uploads,
		ping:    d.Ping,
		logger:  logger.Named("api"),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/upload_pdf", s.handleUploadPDF)
	mux.HandleFunc("GET /api/knowledge/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/knowledge/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/knowledge/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/knowledge/chunks", s.handleListChunks)
	mux.HandleFunc("GET /api/knowledge/chunks/{id}", s.handleGetChunk)
	mux.HandleFunc("DELETE /api/knowledge/chunks/{id}", s.handleDeleteChunk)
	mux.HandleFunc("GET /api/knowledge/search", s.handleSearch)
	return withCORS(s.withRequestLog(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			writeErr(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleChat runs one turn and streams the reply as NDJSON records, one
// per speech unit, ending with {"status":"done"}. A client disconnect
// cancels synthesis.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserMessage string `json:"user_message"`
		UserID      string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.UserMessage = strings.TrimSpace(req.UserMessage)
	if req.UserMessage == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("user_message is required"))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = defaultUserID
	}

	turn := s.chat.Respond(r.Context(), req.UserID, req.UserMessage)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	emit := func(rec synthesis.Record) error {
		if err := enc.Encode(rec); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}
	if err := s.speech.Run(r.Context(), turn.Record.Text, turn.Settings, emit); err != nil {
		s.logger.Warn("chat stream ended early", zap.String("user_id", req.UserID), zap.Error(err))
	}
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, knowledge.MaxPDFBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}
	defer f.Close()
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("only pdf files allowed"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, knowledge.MaxPDFBytes+1))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(data) > knowledge.MaxPDFBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file too large"))
		return
	}
	docID, err := s.uploads.EnqueuePDF(r.Context(), data, fh.Filename)
	if err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Info("pdf accepted", zap.String("doc_id", docID), zap.String("filename", fh.Filename), zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "doc_id": docID})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.kb.ListDocuments(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(docs))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.kb.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	report, err := s.kb.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.kb.ListChunks(r.Context(), strings.TrimSpace(r.URL.Query().Get("doc_id")))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(chunks))
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := s.kb.GetChunk(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	report, err := s.kb.DeleteChunk(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("q is required"))
		return
	}
	k := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("k must be between 1 and 50"))
			return
		}
		k = n
	}
	results, err := s.kb.Search(r.Context(), q, k)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(results))
}

func statusFor(err error) int {
	if errors.Is(err, knowledge.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "VX-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "VX-API-5020", Message: "Upstream provider unavailable. Retry shortly."}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "VX-API-5030", Message: "Service is not ready. Retry shortly."}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "VX-DB-5001",
				Message: "Database schema is not initialized. Restart the service to apply it.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "VX-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "VX-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "VX-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "VX-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "VX-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusRequestEntityTooLarge:
		code = "VX-API-4013"
		msg = "Uploaded file is too large."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "user_message is required"):
			msg = "A user message is required."
		case strings.Contains(raw, "q is required"):
			msg = "A search query is required."
		case strings.Contains(raw, "k must be"):
			msg = "k must be between 1 and 50."
		case strings.Contains(raw, "no files provided"):
			msg = "No PDF file was provided."
		case strings.Contains(raw, "only pdf files allowed"):
			msg = "Only PDF files are allowed."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
