package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voxlit/internal/models"

	"github.com/stretchr/testify/require"
)

func TestResolveGroqKeyAlias(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "base")
	t.Setenv("VOXLIT_GROQ_KEY_TEAM", "team-key")
	require.Equal(t, "team-key", resolveGroqKey("team"))
	require.Equal(t, "base", resolveGroqKey("other"))
}

func TestGroqGenerateSendsMessagesAndTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("VOXLIT_GROQ_URL", srv.URL)
	p := NewGroqProvider("")
	resp, info, err := p.Generate(context.Background(), GenerateRequest{
		Messages:    []models.Message{{Role: models.RoleSystem, Content: "sys"}, {Role: models.RoleUser, Content: "hello"}},
		Temperature: Temperature(0.2),
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", resp.Text)
	require.Equal(t, "groq", info.Name)
	require.Equal(t, groqDefaultModel, got["model"])
	require.InDelta(t, 0.2, got["temperature"], 1e-9)
	require.Len(t, got["messages"], 2)
}

func TestGroqGenerateRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("VOXLIT_GROQ_URL", srv.URL)
	_, _, err := NewGroqProvider("").Generate(context.Background(), GenerateRequest{Prompt: "x"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	require.True(t, pe.Retryable)
	require.Equal(t, ErrorRate, ClassifyError(err))
}
