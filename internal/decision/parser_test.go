package decision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStrict(t *testing.T) {
	rec := Parse(`{"text": "Okay, speeding up!", "config": {"rate": 25, "voice_id": "x"}, "tool": "search_web", "args": "fusion news"}`)
	require.Equal(t, "Okay, speeding up!", rec.Text)
	require.Equal(t, ToolSearchWeb, rec.Tool)
	require.Equal(t, "fusion news", rec.Args)
	require.Equal(t, map[string]any{"rate": float64(25)}, rec.Config)
}

func TestParseStrictCodeFence(t *testing.T) {
	rec := Parse("```json\n{\"text\": \"Hi there!\", \"config\": {}, \"tool\": \"\", \"args\": \"\"}\n```")
	require.Equal(t, "Hi there!", rec.Text)
	require.Equal(t, ToolNone, rec.Tool)
	require.Empty(t, rec.Config)
}

func TestParseStrictTextList(t *testing.T) {
	rec := Parse(`{"text": ["First part. ", "Second part."], "config": {}, "tool": "ANSWER", "args": ""}`)
	require.Equal(t, "First part. Second part.", rec.Text)
	require.Equal(t, ToolAnswer, rec.Tool)
}

func TestParseRepairUnescapedQuote(t *testing.T) {
	rec := Parse(`{"text": "He said "hi"", "config": {}, "tool": "", "args": ""}`)
	require.Equal(t, `He said "hi"`, rec.Text)
	require.Equal(t, ToolNone, rec.Tool)
	require.Empty(t, rec.Args)
	require.Empty(t, rec.Config)
}

func TestParseRepairRecoversAllFields(t *testing.T) {
	raw := `{"text": "Checking "LLM" papers", "config": {"rate": 10, "persona": "pirate"}, "tool": "SEARCH_ARXIV", "args": "large "language" models"}`
	rec := Parse(raw)
	require.Equal(t, `Checking "LLM" papers`, rec.Text)
	require.Equal(t, ToolSearchArxiv, rec.Tool)
	require.Equal(t, `large "language" models`, rec.Args)
	require.Equal(t, map[string]any{"rate": float64(10)}, rec.Config)
}

func TestParseRepairBadConfigBecomesEmpty(t *testing.T) {
	rec := Parse(`{"text": "a "b" c", "config": {rate: 5}, "tool": "ANSWER", "args": ""}`)
	require.Equal(t, `a "b" c`, rec.Text)
	require.Equal(t, ToolAnswer, rec.Tool)
	require.Empty(t, rec.Config)
}

func TestParseRepairWithoutArgs(t *testing.T) {
	rec := Parse(`{"text": "x "y" z", "config": {}, "tool": "RENDER_MERMAID"}`)
	require.Equal(t, `x "y" z`, rec.Text)
	require.Equal(t, ToolRenderMermaid, rec.Tool)
}

func TestParseRepairUnescapesNewlines(t *testing.T) {
	rec := Parse(`{"text": "I will "compute" it", "config": {}, "tool": "EXECUTE_CODE", "args": "a = 6\nresult = a*7"}`)
	require.Equal(t, ToolExecuteCode, rec.Tool)
	require.Equal(t, "a = 6\nresult = a*7", rec.Args)
}

func TestParseFallsBackToRawText(t *testing.T) {
	rec := Parse("Sure, here is a plain answer without any structure.")
	require.Equal(t, "Sure, here is a plain answer without any structure.", rec.Text)
	require.Equal(t, ToolNone, rec.Tool)
	require.Empty(t, rec.Args)
	require.NotNil(t, rec.Config)
}

func TestParseToolNormalization(t *testing.T) {
	cases := map[string]Tool{
		"":               ToolNone,
		" answer ":       ToolAnswer,
		"DANCE":          ToolNone,
		"search_patents": ToolSearchPatents,
		"EXECUTE_CODE":   ToolExecuteCode,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseTool(in), "input %q", in)
	}
}

func TestFailure(t *testing.T) {
	rec := Failure(errTest("model unavailable"))
	require.Equal(t, "model unavailable", rec.Text)
	require.Equal(t, ToolNone, rec.Tool)
}

type errTest string

func (e errTest) Error() string { return string(e) }
