package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voxlit/internal/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atomBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:41:18Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models.  </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:comment>15 pages, 5 figures</arxiv:comment>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
  </entry>
</feed>`

func TestArxivSearchFormatsTopPaper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.Equal(t, "all:attention", r.URL.Query().Get("search_query"))
		assert.Equal(t, "1", r.URL.Query().Get("max_results"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sortBy"))
		_, _ = w.Write([]byte(atomBody))
	}))
	defer srv.Close()

	res, err := NewArxivClient(srv.URL).Search(context.Background(), "attention")
	require.NoError(t, err)
	assert.False(t, res.Empty)
	assert.Equal(t, "Attention Is All You Need", res.Title)
	assert.Equal(t, "http://arxiv.org/pdf/1706.03762v7", res.URL)
	assert.Contains(t, res.Text, "Title: Attention Is All You Need\n")
	assert.Contains(t, res.Text, "Summary:\nThe dominant sequence transduction models.\n")
	assert.Contains(t, res.Text, "Authors:\nAshish Vaswani, Noam Shazeer")
	assert.Contains(t, res.Text, "- Published: 2017-06-12\n- Last Updated: 2023-08-02")
	assert.Contains(t, res.Text, "Categories:\ncs.CL, cs.LG")
	assert.Contains(t, res.Text, "Journal Reference:\nNone")
	assert.Contains(t, res.Text, "Comments:\n15 pages, 5 figures")
	assert.Contains(t, res.Text, "arXiv ID:\nhttp://arxiv.org/abs/1706.03762v7")
}

func TestArxivSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	res, err := NewArxivClient(srv.URL).Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, "No papers found.", res.Text)
}

func TestArxivSearchMapsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewArxivClient(srv.URL).Search(context.Background(), "x")
	var pe *providers.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Retryable)
}

func tavilyServer(t *testing.T, wantDomains []string, results []tavilyResult) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.Equal(t, 1, req.MaxResults)
		assert.Equal(t, wantDomains, req.IncludeDomains)
		_ = json.NewEncoder(w).Encode(tavilyResponse{Results: results})
	}))
}

func TestWebSearcher(t *testing.T) {
	srv := tavilyServer(t, nil, []tavilyResult{{Title: "Go 1.24", URL: "https://go.dev", Content: " Release notes "}})
	defer srv.Close()

	res, err := WebSearcher{Client: NewTavilyClient("tvly-test", srv.URL)}.Search(context.Background(), "go release")
	require.NoError(t, err)
	assert.Equal(t, "Source: Go 1.24\nContent: Release notes", res.Text)
	assert.Equal(t, "https://go.dev", res.URL)
}

func TestPatentSearcherCleansContent(t *testing.T) {
	content := "## Abstract\nAbstract\n| col | col |\nPublication number: US123\nUS20070123A1\nshort\nA wireless charging pad with coil alignment.\nIt improves efficiency   significantly."
	srv := tavilyServer(t, []string{"patents.google.com"}, []tavilyResult{{Title: "Charging pad", Content: content}})
	defer srv.Close()

	res, err := PatentSearcher{Client: NewTavilyClient("tvly-test", srv.URL)}.Search(context.Background(), "wireless charging")
	require.NoError(t, err)
	assert.Equal(t, "Patent: Charging pad\nSummary: A wireless charging pad with coil alignment. It improves efficiency significantly.", res.Text)
}

func TestPatentSearcherNoResults(t *testing.T) {
	srv := tavilyServer(t, []string{"patents.google.com"}, nil)
	defer srv.Close()

	res, err := PatentSearcher{Client: NewTavilyClient("tvly-test", srv.URL)}.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, "No patents found.", res.Text)
}

func TestTavilyMissingKey(t *testing.T) {
	_, err := WebSearcher{Client: NewTavilyClient("", "http://unused")}.Search(context.Background(), "x")
	require.Error(t, err)
}
