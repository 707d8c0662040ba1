package tools

import (
	"context"
	"strings"

	"voxlit/internal/models"
	"voxlit/internal/prompts"
	"voxlit/internal/providers"

	"go.uber.org/zap"
)

// Humanizer rewrites tool output as plain conversational prose.
type Humanizer interface {
	Humanize(ctx context.Context, text string) string
}

// Passthrough returns its input unchanged.
type Passthrough struct{}

func (Passthrough) Humanize(_ context.Context, text string) string { return text }

type LLMHumanizer struct {
	llm    providers.LLMProvider
	logger *zap.Logger
}

func NewLLMHumanizer(llm providers.LLMProvider, logger *zap.Logger) *LLMHumanizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMHumanizer{llm: llm, logger: logger.Named("humanizer")}
}

// Humanize falls back to the input text when the model call fails so the
// caller still has something to speak.
func (h *LLMHumanizer) Humanize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	resp, _, err := h.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "humanize",
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: prompts.Humanizer},
			{Role: models.RoleUser, Content: text},
			{Role: models.RoleSystem, Content: prompts.Reminder},
		},
		Temperature: providers.Temperature(0.5),
	})
	if err != nil {
		h.logger.Warn("humanize failed", zap.Error(err))
		return text
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return text
	}
	return out
}
