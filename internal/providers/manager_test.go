package providers

import (
	"context"
	"errors"
	"testing"

	"voxlit/internal/config"

	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	name  string
	err   error
	calls int
}

func (s *stubLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return GenerateResponse{}, ProviderInfo{Name: s.name}, s.err
	}
	return GenerateResponse{Text: s.name}, ProviderInfo{Name: s.name}, nil
}

func TestManagerFallsBackOnRateLimit(t *testing.T) {
	first := &stubLLM{name: "first", err: mapProviderError("GROQ", 429, "slow")}
	second := &stubLLM{name: "second"}
	m := &Manager{llmProviders: []NamedLLMProvider{
		{Ref: ProviderRef{Name: "groq"}, Provider: first},
		{Ref: ProviderRef{Name: "openai"}, Provider: second},
	}}
	resp, info, err := m.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	require.Equal(t, "second", resp.Text)
	require.Equal(t, "second", info.Name)
}

func TestManagerStopsOnPermanentError(t *testing.T) {
	first := &stubLLM{name: "first", err: errors.New("bad request")}
	second := &stubLLM{name: "second"}
	m := &Manager{llmProviders: []NamedLLMProvider{
		{Ref: ProviderRef{Name: "groq"}, Provider: first},
		{Ref: ProviderRef{Name: "openai"}, Provider: second},
	}}
	_, _, err := m.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.EqualError(t, err, "bad request")
	require.Equal(t, 0, second.calls)
}

func TestManagerPrefersRealProvidersOverMock(t *testing.T) {
	m := &Manager{llmProviders: []NamedLLMProvider{
		{Ref: ProviderRef{Name: "mock"}},
		{Ref: ProviderRef{Name: "groq"}},
	}}
	require.Equal(t, []int{1, 0}, m.PreferredLLMOrder())
}

func TestNewManagerFromConfig(t *testing.T) {
	m, err := NewManager(config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 8})
	require.NoError(t, err)
	vecs, info, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, "mock", info.Name)
	require.Len(t, vecs, 2)
	require.Len(t, vecs[0], 8)

	_, err = NewManager(config.Config{LLMProviders: "nope"})
	require.Error(t, err)
}

func TestNewSpeechProvider(t *testing.T) {
	p, err := NewSpeechProvider(config.Config{TTSProvider: "mock"})
	require.NoError(t, err)
	audio, err := p.Synthesize(context.Background(), "hi", defaultSettingsForTest())
	require.NoError(t, err)
	require.Contains(t, string(audio), "hi")

	_, err = NewSpeechProvider(config.Config{TTSProvider: "other"})
	require.Error(t, err)
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(&stubLLM{name: "only"}, NewMockProvider(8), 8)
	require.Equal(t, 1, m.LLMCount())
	require.Equal(t, 1, m.EmbedCount())
	require.Equal(t, 8, m.EmbedDim())

	resp, _, err := m.Generate(context.Background(), GenerateRequest{Operation: "chat"})
	require.NoError(t, err)
	require.Equal(t, "only", resp.Text)

	vecs, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}})
	require.NoError(t, err)
	require.Len(t, vecs[0], 8)
}
