package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"voxlit/internal/models"
)

const (
	murfDefaultBaseURL = "https://global.api.murf.ai"
	murfDefaultVoice   = "en-IN-nikhil"
)

// MurfProvider calls Murf's streaming speech endpoint and returns the whole
// MP3 body for one text unit.
type MurfProvider struct {
	APIKey     string
	BaseURL    string
	VoiceID    string
	HTTPClient *http.Client
}

func NewMurfProvider(apiKey, baseURL, voiceID string) *MurfProvider {
	return &MurfProvider{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		VoiceID:    voiceID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type murfRequest struct {
	VoiceID           string `json:"voice_id"`
	Text              string `json:"text"`
	Style             string `json:"style"`
	Rate              int    `json:"rate"`
	Pitch             int    `json:"pitch"`
	MultiNativeLocale string `json:"multi_native_locale"`
	Model             string `json:"model"`
	Format            string `json:"format"`
	SampleRate        int    `json:"sampleRate"`
	ChannelType       string `json:"channelType"`
}

func (m *MurfProvider) Synthesize(ctx context.Context, text string, settings models.VoiceSettings) ([]byte, error) {
	apiKey := strings.TrimSpace(m.APIKey)
	if apiKey == "" {
		return nil, &ProviderError{Code: "MURF_AUTH", Message: "missing Murf API key"}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ProviderError{Code: "MURF_FAILED", Message: "text is required"}
	}
	voiceID := strings.TrimSpace(m.VoiceID)
	if voiceID == "" {
		voiceID = murfDefaultVoice
	}

	payload, err := json.Marshal(murfRequest{
		VoiceID:           voiceID,
		Text:              text,
		Style:             settings.Style,
		Rate:              settings.Rate,
		Pitch:             settings.Pitch,
		MultiNativeLocale: "en-IN",
		Model:             "FALCON",
		Format:            "MP3",
		SampleRate:        24000,
		ChannelType:       "MONO",
	})
	if err != nil {
		return nil, &ProviderError{Code: "MURF_FAILED", Message: "failed to marshal TTS request", Cause: err}
	}

	baseURL := strings.TrimSpace(m.BaseURL)
	if baseURL == "" {
		baseURL = murfDefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/v1/speech/stream", bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Code: "MURF_FAILED", Message: "failed to build TTS request", Cause: err}
	}
	req.Header.Set("api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError("MURF", "tts", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Code: "MURF_FAILED", Message: "failed to read TTS response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return body, nil
	}
	return nil, mapProviderError("MURF", resp.StatusCode, string(body))
}
