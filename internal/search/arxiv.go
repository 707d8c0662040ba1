package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"voxlit/internal/providers"
)

const arxivDefaultBaseURL = "http://export.arxiv.org"

// ArxivClient queries the arXiv Atom API for the single most relevant paper.
type ArxivClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewArxivClient(baseURL string) *ArxivClient {
	return &ArxivClient{BaseURL: baseURL, HTTPClient: defaultHTTPClient()}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string `xml:"id"`
	Title      string `xml:"title"`
	Summary    string `xml:"summary"`
	Published  string `xml:"published"`
	Updated    string `xml:"updated"`
	Comment    string `xml:"http://arxiv.org/schemas/atom comment"`
	JournalRef string `xml:"http://arxiv.org/schemas/atom journal_ref"`
	DOI        string `xml:"http://arxiv.org/schemas/atom doi"`
	Authors    []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
		Type  string `xml:"type,attr"`
	} `xml:"link"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
}

func (c *ArxivClient) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Text: "No papers found.", Empty: true}, nil
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = arxivDefaultBaseURL
	}
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", "1")
	params.Set("sortBy", "relevance")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/query?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build arxiv request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("arxiv request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read arxiv response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, providers.HTTPError("ARXIV", resp.StatusCode, string(body))
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Result{}, fmt.Errorf("decode arxiv feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return Result{Text: "No papers found.", Empty: true}, nil
	}
	e := feed.Entries[0]
	return Result{Title: clean(e.Title), URL: pdfLink(e), Text: formatPaper(e)}, nil
}

func formatPaper(e atomEntry) string {
	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, clean(a.Name))
	}
	cats := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		cats = append(cats, c.Term)
	}
	var b strings.Builder
	b.WriteString("Paper Found on arXiv\n")
	fmt.Fprintf(&b, "Title: %s\n\n", clean(e.Title))
	fmt.Fprintf(&b, "Summary:\n%s\n\n", clean(e.Summary))
	fmt.Fprintf(&b, "Authors:\n%s\n\n", strings.Join(authors, ", "))
	fmt.Fprintf(&b, "Publication Dates:\n- Published: %s\n- Last Updated: %s\n\n", day(e.Published), day(e.Updated))
	fmt.Fprintf(&b, "Categories:\n%s\n\n", strings.Join(cats, ", "))
	fmt.Fprintf(&b, "Journal Reference:\n%s\n\n", orNone(e.JournalRef))
	fmt.Fprintf(&b, "Comments:\n%s\n\n", orNone(e.Comment))
	fmt.Fprintf(&b, "PDF Link:\n%s\n\n", orNone(pdfLink(e)))
	fmt.Fprintf(&b, "arXiv ID:\n%s", strings.TrimSpace(e.ID))
	return b.String()
}

func pdfLink(e atomEntry) string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func day(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) < 10 {
		return "Unknown"
	}
	return ts[:10]
}

func orNone(s string) string {
	s = clean(s)
	if s == "" {
		return "None"
	}
	return s
}
