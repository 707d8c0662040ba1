package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"voxlit/internal/providers"
)

const tavilyDefaultBaseURL = "https://api.tavily.com"

type TavilyClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewTavilyClient(apiKey, baseURL string) *TavilyClient {
	return &TavilyClient{APIKey: apiKey, BaseURL: baseURL, HTTPClient: defaultHTTPClient()}
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

func (c *TavilyClient) search(ctx context.Context, query string, domains []string) ([]tavilyResult, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil, errors.New("missing Tavily API key")
	}
	payload, err := json.Marshal(tavilyRequest{
		Query:          query,
		SearchDepth:    "advanced",
		MaxResults:     1,
		IncludeDomains: domains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = tavilyDefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tavily response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providers.HTTPError("TAVILY", resp.StatusCode, string(body))
	}
	var out tavilyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return out.Results, nil
}

// WebSearcher returns the top Tavily result for a general query.
type WebSearcher struct {
	Client *TavilyClient
}

func (w WebSearcher) Search(ctx context.Context, query string) (Result, error) {
	results, err := w.Client.search(ctx, query, nil)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{Text: "No web results found.", Empty: true}, nil
	}
	r := results[0]
	return Result{
		Title: r.Title,
		URL:   r.URL,
		Text:  fmt.Sprintf("Source: %s\nContent: %s", r.Title, strings.TrimSpace(r.Content)),
	}, nil
}

// PatentSearcher restricts Tavily to Google Patents and strips the page
// chrome out of the returned content.
type PatentSearcher struct {
	Client *TavilyClient
}

var (
	patentIDRe    = regexp.MustCompile(`^[A-Z]{2}\d+[A-Z]\d+$`)
	patentChrome  = map[string]bool{"USPTO": true, "Espacenet": true, "Global Dossier": true, "Discuss": true, "Abstract": true, "Info": true, "Classifications": true, "Links": true}
	whitespaceRun = regexp.MustCompile(`\s+`)
)

func (p PatentSearcher) Search(ctx context.Context, query string) (Result, error) {
	results, err := p.Client.search(ctx, query, []string{"patents.google.com"})
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{Text: "No patents found.", Empty: true}, nil
	}
	r := results[0]
	return Result{
		Title: r.Title,
		URL:   r.URL,
		Text:  fmt.Sprintf("Patent: %s\nSummary: %s", r.Title, CleanPatentContent(r.Content)),
	}, nil
}

// CleanPatentContent drops table rows, headings, navigation labels,
// "Label: value" metadata and bare publication numbers.
func CleanPatentContent(raw string) string {
	kept := make([]string, 0, 16)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "|"), strings.Contains(line, " | "):
			continue
		case strings.HasPrefix(line, "##"), strings.HasPrefix(line, "[...]"):
			continue
		case patentChrome[line]:
			continue
		case patentIDRe.MatchString(line):
			continue
		}
		if i := strings.Index(line, ":"); i >= 0 && i < 25 {
			continue
		}
		if len(line) > 10 {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.Join(kept, " "), " "))
}
