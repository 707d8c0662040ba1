package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"voxlit/internal/providers"
)

// MaxPDFBytes bounds downloaded and uploaded PDFs.
const MaxPDFBytes = 32 << 20

var defaultFetchClient = &http.Client{Timeout: 60 * time.Second}

// FetchPDF downloads a PDF and returns its bytes with a display filename.
func FetchPDF(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	if client == nil {
		client = defaultFetchClient
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("fetch pdf: invalid url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", providers.HTTPError("PDF", resp.StatusCode, string(body))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPDFBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read pdf body: %w", err)
	}
	if len(data) > MaxPDFBytes {
		return nil, "", fmt.Errorf("fetch pdf: body exceeds %d bytes", MaxPDFBytes)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = u.Host
	}
	return data, strings.TrimSpace(name), nil
}
