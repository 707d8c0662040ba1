package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaEmbeddingProvider embeds through a local Ollama server. All inputs of
// a request go out in one /api/embed call.
type OllamaEmbeddingProvider struct {
	alias   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaEmbeddingProvider(alias string) *OllamaEmbeddingProvider {
	baseURL := strings.TrimSpace(os.Getenv("VOXLIT_OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbeddingProvider{
		alias:   alias,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   resolveOllamaEmbedModel(alias),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (o *OllamaEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.model, Key: o.alias}
	if len(req.Inputs) == 0 {
		return nil, info, errors.New("no embedding inputs")
	}
	payload, err := json.Marshal(map[string]any{"model": o.model, "input": req.Inputs})
	if err != nil {
		return nil, info, fmt.Errorf("encode ollama request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, info, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, info, transportError("OLLAMA", "embedding", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, mapProviderError("OLLAMA", resp.StatusCode, string(body))
	}
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode ollama embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(parsed.Embeddings), len(req.Inputs))
	}
	out := make([][]float32, len(parsed.Embeddings))
	for i, v := range parsed.Embeddings {
		if len(v) == 0 {
			return nil, info, fmt.Errorf("ollama returned an empty embedding at %d", i)
		}
		out[i] = matchDimension(v, req.Dimension)
	}
	return out, info, nil
}

// resolveOllamaEmbedModel maps the provider-list alias to a model. An alias
// that looks like a model name is used as is.
func resolveOllamaEmbedModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		if v := strings.TrimSpace(os.Getenv("VOXLIT_OLLAMA_EMBED_MODEL_" + envToken(alias))); v != "" {
			return v
		}
		switch strings.ToLower(alias) {
		case "nomic":
			return "nomic-embed-text"
		case "bge":
			return "bge-small-en-v1.5"
		case "mxbai":
			return "mxbai-embed-large"
		}
		if strings.ContainsAny(alias, "-/.") {
			return alias
		}
	}
	if v := strings.TrimSpace(os.Getenv("VOXLIT_OLLAMA_EMBED_MODEL")); v != "" {
		return v
	}
	return "nomic-embed-text"
}

func envToken(s string) string {
	return strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(strings.ToUpper(s))
}

// matchDimension truncates or zero-pads v to the index width.
func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}
