package knowledge

import (
	"strings"
	"testing"

	"voxlit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectivesOnePerKindInFixedOrder(t *testing.T) {
	results := []models.RetrievalResult{
		{SourceKind: models.SourcePDF},
		{SourceKind: models.SourceWeb},
		{SourceKind: models.SourceArxiv},
		{SourceKind: models.SourceWeb},
	}
	got := Directives(results)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "SEARCH_ARXIV")
	assert.Contains(t, got[1], "SEARCH_WEB")
	assert.Contains(t, got[2], "uploaded PDF")
	for _, d := range got {
		assert.Contains(t, d, "ANSWER")
	}
}

func TestDirectivesPythonMapsToExecuteCode(t *testing.T) {
	got := Directives([]models.RetrievalResult{{SourceKind: models.SourcePython}})
	require.Len(t, got, 1)
	assert.True(t, strings.Contains(got[0], "EXECUTE_CODE"))
}

func TestDirectivesEmpty(t *testing.T) {
	assert.Empty(t, Directives(nil))
}

func TestFormatContext(t *testing.T) {
	results := []models.RetrievalResult{{
		ChunkID:            "web:1:0",
		DocumentID:         "web:1",
		Title:              "Attention",
		SourceKind:         models.SourceWeb,
		ConversationalText: "line one\nline two",
		KeyDetails:         []string{"a", "b"},
	}}
	got := FormatContext(results, 0)
	assert.True(t, strings.HasPrefix(got, "You have access to the user's stored knowledge base."))
	assert.Contains(t, got, "Source: web (doc_id=web:1, chunk_id=web:1:0)")
	assert.Contains(t, got, "Key Details: a, b")
	assert.Contains(t, got, "Excerpt: line one line two")
}

func TestFormatContextFallsBackToExtractAndTruncates(t *testing.T) {
	long := strings.Repeat("x", 900)
	got := FormatContext([]models.RetrievalResult{{SourceExtract: long}}, 0)
	assert.Contains(t, got, "Excerpt: "+strings.Repeat("x", 600)+"\n")
	assert.NotContains(t, got, strings.Repeat("x", 601))
}

func TestFormatContextRespectsBudget(t *testing.T) {
	r := models.RetrievalResult{Title: "T", ConversationalText: strings.Repeat("y", 500)}
	got := FormatContext([]models.RetrievalResult{r, r, r}, 1200)
	assert.Equal(t, 2, strings.Count(got, "Title: T"))
	assert.Equal(t, "", FormatContext([]models.RetrievalResult{r}, 10))
	assert.Equal(t, "", FormatContext(nil, 0))
}
