package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"voxlit/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager holds the configured providers in preference order and falls
// through to the next one when a call fails with a quota, rate, auth or
// transient error.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	embedDim       int
}

func NewManager(cfg config.Config) (*Manager, error) {
	llmRefs := ParseProviderList(cfg.LLMProviders)
	embedRefs := ParseProviderList(cfg.EmbedProviders)

	m := &Manager{embedDim: cfg.EmbedDim}
	for _, ref := range llmRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	return m, nil
}

// NewStaticManager wraps already-built providers; used by tests and tools
// that bypass env configuration.
func NewStaticManager(llm LLMProvider, embed EmbeddingProvider, embedDim int) *Manager {
	m := &Manager{embedDim: embedDim}
	if llm != nil {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "static", Name: "static"}, Provider: llm}}
	}
	if embed != nil {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "static", Name: "static"}, Provider: embed}}
	}
	return m
}

func (m *Manager) EmbedCount() int {
	return len(m.embedProviders)
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

// EmbedDim is the vector width requested from embedding providers.
func (m *Manager) EmbedDim() int {
	return m.embedDim
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func (m *Manager) PreferredEmbedOrder() []int {
	return preferredOrder(len(m.embedProviders), func(i int) string { return strings.ToLower(m.embedProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

// Generate implements LLMProvider over every configured provider.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if len(m.llmProviders) == 0 {
		return GenerateResponse{}, ProviderInfo{}, errors.New("no llm providers configured")
	}
	var (
		lastInfo ProviderInfo
		lastErr  error
	)
	for _, i := range m.PreferredLLMOrder() {
		resp, info, err := m.llmProviders[i].Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastInfo, lastErr = info, err
		if !Fallbackable(err) || ctx.Err() != nil {
			break
		}
	}
	return GenerateResponse{}, lastInfo, lastErr
}

// Embed implements EmbeddingProvider over every configured provider. The
// request dimension defaults to the configured width.
func (m *Manager) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	if len(m.embedProviders) == 0 {
		return nil, ProviderInfo{}, errors.New("no embedding providers configured")
	}
	if req.Dimension <= 0 {
		req.Dimension = m.embedDim
	}
	var (
		lastInfo ProviderInfo
		lastErr  error
	)
	for _, i := range m.PreferredEmbedOrder() {
		vecs, info, err := m.embedProviders[i].Provider.Embed(ctx, req)
		if err == nil {
			return vecs, info, nil
		}
		lastInfo, lastErr = info, err
		if !Fallbackable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastInfo, lastErr
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

// NewSpeechProvider selects the TTS backend named by cfg.TTSProvider.
func NewSpeechProvider(cfg config.Config) (SpeechProvider, error) {
	switch cfg.TTSProvider {
	case "", "mock":
		return MockSynthesizer{}, nil
	case "murf":
		return NewMurfProvider(os.Getenv("MURF_API_KEY"), cfg.MurfBaseURL, cfg.MurfVoiceID), nil
	default:
		return nil, fmt.Errorf("unsupported tts provider: %s", cfg.TTSProvider)
	}
}
