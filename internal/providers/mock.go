package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"voxlit/internal/models"
)

type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

// Generate returns deterministic output shaped like what each operation's
// caller expects, so the full pipeline runs without network access.
func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	last := req.Prompt
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == models.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	var text string
	switch strings.ToLower(req.Operation) {
	case "chat":
		payload, _ := json.Marshal(map[string]any{
			"text":   "Mock response to: " + strings.TrimSpace(last),
			"config": map[string]any{},
			"tool":   "ANSWER",
			"args":   "",
		})
		text = string(payload)
	case "humanize":
		text = strings.TrimSpace(last)
	case "summarize":
		text = "Summary: " + strconv.Itoa(len(req.Messages)) + " messages exchanged."
	case "chunk":
		source := strings.Join(req.Context, "\n")
		payload, _ := json.Marshal([]map[string]any{{
			"id":             "0",
			"conversational": truncateRunes(source, 200),
			"key_details":    []string{},
			"source_extract": source,
			"faq":            []any{},
		}})
		text = string(payload)
	default:
		text = "Mock response."
	}
	return GenerateResponse{Text: text}, info, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// MockSynthesizer produces fake audio bytes derived from the text.
type MockSynthesizer struct{}

func (MockSynthesizer) Synthesize(ctx context.Context, text string, settings models.VoiceSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("mock-audio[%s]:%s", settings.Style, text)), nil
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		v := float32(u%2000)/1000.0 - 1.0
		vec[i] = v
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / (float64(sum) + 1e-9))
	for i := range v {
		v[i] *= inv
	}
	return v
}
