package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	groqDefaultModel = "llama-3.3-70b-versatile"
	groqChatURL      = "https://api.groq.com/openai/v1/chat/completions"
)

// GroqProvider supports LLM generation via Groq's OpenAI-compatible API.
type GroqProvider struct {
	keyName string
	apiKey  string
	model   string
	url     string
	client  *http.Client
}

func NewGroqProvider(keyName string) *GroqProvider {
	model := os.Getenv("VOXLIT_GROQ_MODEL")
	if strings.TrimSpace(model) == "" {
		model = groqDefaultModel
	}
	url := strings.TrimSpace(os.Getenv("VOXLIT_GROQ_URL"))
	if url == "" {
		url = groqChatURL
	}
	return &GroqProvider{
		keyName: keyName,
		apiKey:  resolveGroqKey(keyName),
		model:   model,
		url:     url,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GroqProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "groq", Key: g.keyName, Model: g.model}
	if g.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("groq key missing for alias %q", g.keyName)
	}
	text, err := chatCompletion(ctx, g.client, "GROQ", g.url, g.apiKey, g.model,
		"You are a helpful voice assistant. Keep responses concise.", req)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("groq generate: %w", err)
	}
	return GenerateResponse{Text: text}, info, nil
}

func resolveGroqKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("VOXLIT_GROQ_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("GROQ_API_KEY")
}
