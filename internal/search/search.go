// Package search holds the external search collaborators behind the
// SEARCH_ARXIV, SEARCH_WEB and SEARCH_PATENTS tools.
package search

import (
	"net/http"
	"time"
)

// Result is one formatted search answer. Empty marks the "nothing found"
// placeholder text, which is not worth persisting.
type Result struct {
	Title string
	URL   string
	Text  string
	Empty bool
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}
