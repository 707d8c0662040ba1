package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voxlit/internal/models"
	"voxlit/internal/prompts"
	"voxlit/internal/providers"
	"voxlit/internal/util"

	"go.uber.org/zap"
)

// Chunker splits raw text into chunks. Ids are assigned by the caller.
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]models.Chunk, error)
}

// FixedChunker cuts text into overlapping rune windows.
type FixedChunker struct {
	Size    int
	Overlap int
}

func (f FixedChunker) Chunk(_ context.Context, text string) ([]models.Chunk, error) {
	parts := util.ChunkText(text, f.Size, f.Overlap)
	out := make([]models.Chunk, 0, len(parts))
	for _, p := range parts {
		p = util.SanitizeText(p)
		if p == "" {
			continue
		}
		out = append(out, models.Chunk{
			ConversationalText: util.DisplaySnippet(p, 280),
			KeyDetails:         []string{},
			SourceExtract:      p,
			FAQ:                []models.FAQ{},
		})
	}
	return out, nil
}

// LLMChunker asks the model for semantic chunks and falls back to fixed-size
// chunking when the call or the decode fails.
type LLMChunker struct {
	llm      providers.LLMProvider
	fallback FixedChunker
	window   int
	logger   *zap.Logger
}

func NewLLMChunker(llm providers.LLMProvider, fallback FixedChunker, logger *zap.Logger) *LLMChunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMChunker{llm: llm, fallback: fallback, window: 12000, logger: logger.Named("chunker")}
}

type llmChunk struct {
	ID             string       `json:"id"`
	Conversational string       `json:"conversational"`
	KeyDetails     []string     `json:"key_details"`
	SourceExtract  string       `json:"source_extract"`
	FAQ            []models.FAQ `json:"faq"`
}

func (c *LLMChunker) Chunk(ctx context.Context, text string) ([]models.Chunk, error) {
	out := make([]models.Chunk, 0, 8)
	for _, window := range util.ChunkText(text, c.window, 0) {
		chunks, err := c.chunkWindow(ctx, window)
		if err != nil {
			c.logger.Warn("semantic chunking failed, using fixed chunks", zap.Error(err))
			fixed, _ := c.fallback.Chunk(ctx, window)
			out = append(out, fixed...)
			continue
		}
		out = append(out, chunks...)
	}
	return out, nil
}

func (c *LLMChunker) chunkWindow(ctx context.Context, text string) ([]models.Chunk, error) {
	resp, _, err := c.llm.Generate(ctx, providers.GenerateRequest{
		Operation:   "chunk",
		Prompt:      prompts.Chunker,
		Context:     []string{text},
		Temperature: providers.Temperature(0.2),
	})
	if err != nil {
		return nil, err
	}
	raw := betweenBrackets(resp.Text)
	if raw == "" {
		return nil, errors.New("no JSON list in chunker response")
	}
	var parsed []llmChunk
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode chunker response: %w", err)
	}
	out := make([]models.Chunk, 0, len(parsed))
	for _, p := range parsed {
		if strings.TrimSpace(p.Conversational) == "" && strings.TrimSpace(p.SourceExtract) == "" {
			continue
		}
		if p.KeyDetails == nil {
			p.KeyDetails = []string{}
		}
		if p.FAQ == nil {
			p.FAQ = []models.FAQ{}
		}
		out = append(out, models.Chunk{
			ConversationalText: p.Conversational,
			KeyDetails:         p.KeyDetails,
			SourceExtract:      util.SanitizeText(p.SourceExtract),
			FAQ:                p.FAQ,
		})
	}
	if len(out) == 0 {
		return nil, errors.New("chunker returned no chunks")
	}
	return out, nil
}

func betweenBrackets(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
