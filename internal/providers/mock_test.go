package providers

import (
	"context"
	"encoding/json"
	"testing"

	"voxlit/internal/models"

	"github.com/stretchr/testify/require"
)

func defaultSettingsForTest() models.VoiceSettings {
	return models.DefaultVoiceSettings()
}

func TestMockChatReturnsDecisionJSON(t *testing.T) {
	resp, _, err := NewMockProvider(4).Generate(context.Background(), GenerateRequest{
		Operation: "chat",
		Messages:  []models.Message{{Role: models.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &out))
	require.Equal(t, "Mock response to: hello", out["text"])
	require.Equal(t, "ANSWER", out["tool"])
}

func TestMockEmbedIsDeterministic(t *testing.T) {
	p := NewMockProvider(16)
	a, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"same"}})
	require.NoError(t, err)
	b, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"same"}})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a[0], 16)
}
