package knowledge

import "voxlit/internal/models"

var directives = map[models.SourceKind]string{
	models.SourceArxiv:  "The knowledge base already holds arXiv papers relevant to this question. Prefer tool ANSWER using that context instead of calling SEARCH_ARXIV again, unless the user explicitly asks for new or fresh results.",
	models.SourceWeb:    "The knowledge base already holds web search results relevant to this question. Prefer tool ANSWER using that context instead of calling SEARCH_WEB again, unless the user explicitly asks for new or fresh results.",
	models.SourcePatent: "The knowledge base already holds patent search results relevant to this question. Prefer tool ANSWER using that context instead of calling SEARCH_PATENTS again, unless the user explicitly asks for new or fresh results.",
	models.SourcePython: "The knowledge base already holds code execution results relevant to this question. Prefer tool ANSWER using that context instead of calling EXECUTE_CODE again, unless the user explicitly asks to recompute.",
	models.SourcePDF:    "The knowledge base holds the user's uploaded PDF documents relevant to this question. Prefer tool ANSWER from those documents.",
}

// Directives returns one gating instruction per distinct source kind present
// in results, in models.SourceKinds order.
func Directives(results []models.RetrievalResult) []string {
	present := make(map[models.SourceKind]bool, len(results))
	for _, r := range results {
		present[r.SourceKind] = true
	}
	out := make([]string, 0, len(present))
	for _, k := range models.SourceKinds {
		if present[k] {
			out = append(out, directives[k])
		}
	}
	return out
}
