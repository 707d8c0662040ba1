package providers

import (
	"context"
	"strings"

	"voxlit/internal/models"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// GenerateRequest carries either a full chat transcript in Messages or a
// single Prompt with optional Context passages.
type GenerateRequest struct {
	Operation   string           `json:"operation"`
	Messages    []models.Message `json:"messages,omitempty"`
	Prompt      string           `json:"prompt,omitempty"`
	Context     []string         `json:"context,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type EmbedRequest struct {
	Operation string   `json:"operation"`
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error)
}

// SpeechProvider turns one text unit into encoded audio.
type SpeechProvider interface {
	Synthesize(ctx context.Context, text string, settings models.VoiceSettings) ([]byte, error)
}

// Temperature is a small helper for building requests.
func Temperature(t float64) *float64 {
	return &t
}

// chatMessages renders req into OpenAI-compatible chat messages. Prompt-style
// requests get systemPrompt prepended.
func chatMessages(req GenerateRequest, systemPrompt string) []map[string]string {
	if len(req.Messages) > 0 {
		out := make([]map[string]string, 0, len(req.Messages))
		for _, m := range req.Messages {
			out = append(out, map[string]string{"role": m.Role, "content": m.Content})
		}
		return out
	}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	return []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": prompt},
	}
}
