package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voxlit/internal/decision"
	"voxlit/internal/jobs"
	"voxlit/internal/models"
	"voxlit/internal/providers"
	"voxlit/internal/sandbox"
	"voxlit/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, query string) (search.Result, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(search.Result), args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Enqueue(ctx context.Context, r models.ToolResult) error {
	return m.Called(ctx, r).Error(0)
}

type tagHumanizer struct{}

func (tagHumanizer) Humanize(_ context.Context, text string) string { return "<" + text + ">" }

func TestDispatchArxiv(t *testing.T) {
	arxiv := &mockSearcher{}
	arxiv.On("Search", mock.Anything, "transformers").Return(search.Result{Title: "Attention", Text: "Paper text"}, nil)
	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.MatchedBy(func(r models.ToolResult) bool {
		return r.Tool == "SEARCH_ARXIV" && r.SourceKind == models.SourceArxiv && r.Query == "transformers" &&
			r.Output == "Paper text" && r.Title == "Attention" && !r.CreatedAt.IsZero()
	})).Return(nil).Once()

	d := NewDispatcher(arxiv, nil, nil, nil, tagHumanizer{}, sink, nil)
	out := d.Dispatch(context.Background(), decision.Record{Text: "Checking arXiv.", Tool: decision.ToolSearchArxiv, Args: "transformers"})

	assert.Equal(t, "Checking arXiv.\n<Paper text>", out.Text)
	assert.Equal(t, decision.ToolSearchArxiv, out.Tool)
	arxiv.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestDispatchWebAndPatents(t *testing.T) {
	web := &mockSearcher{}
	web.On("Search", mock.Anything, "go").Return(search.Result{Text: "Source: Go\nContent: fast"}, nil)
	patents := &mockSearcher{}
	patents.On("Search", mock.Anything, "coil").Return(search.Result{Text: "No patents found.", Empty: true}, nil)
	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	d := NewDispatcher(nil, web, patents, nil, tagHumanizer{}, sink, nil)
	out := d.Dispatch(context.Background(), decision.Record{Text: "ignored", Tool: decision.ToolSearchWeb, Args: "go"})
	assert.Equal(t, "Searching the web for 'go'\n\n<Source: Go\nContent: fast>", out.Text)

	out = d.Dispatch(context.Background(), decision.Record{Tool: decision.ToolSearchPatents, Args: "coil"})
	assert.Equal(t, "Searching patent databases for 'coil'\n\n<No patents found.>", out.Text)
	sink.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestDispatchPatentFailureStillAcknowledges(t *testing.T) {
	patents := &mockSearcher{}
	patents.On("Search", mock.Anything, "widgets").Return(search.Result{}, errors.New("upstream down"))
	sink := &mockSink{}

	d := NewDispatcher(nil, nil, patents, nil, nil, sink, nil)
	out := d.Dispatch(context.Background(), decision.Record{Tool: decision.ToolSearchPatents, Args: "widgets"})
	assert.Equal(t, "Searching patent databases for 'widgets'\n\nPatent Search Error: upstream down", out.Text)
	sink.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDispatchSearchErrorsInline(t *testing.T) {
	failing := &mockSearcher{}
	failing.On("Search", mock.Anything, mock.Anything).Return(search.Result{}, errors.New("timeout"))
	d := NewDispatcher(failing, failing, nil, nil, nil, nil, nil)

	out := d.Dispatch(context.Background(), decision.Record{Text: "Looking.", Tool: decision.ToolSearchArxiv, Args: "q"})
	assert.Equal(t, "Looking.\nArxiv Error: timeout", out.Text)
	out = d.Dispatch(context.Background(), decision.Record{Tool: decision.ToolSearchWeb, Args: "q"})
	assert.True(t, strings.HasSuffix(out.Text, "Web Search Error: timeout"))
}

func TestDispatchExecuteCode(t *testing.T) {
	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.MatchedBy(func(r models.ToolResult) bool {
		return r.SourceKind == models.SourcePython && strings.Contains(r.Output, "Result:\n120")
	})).Return(nil).Once()

	d := NewDispatcher(nil, nil, nil, sandbox.New(0), tagHumanizer{}, sink, nil)
	src := "import math\nresult = math.factorial(5)"
	out := d.Dispatch(context.Background(), decision.Record{Text: "Calculating.", Tool: decision.ToolExecuteCode, Args: src})

	assert.Equal(t, "```\n"+src+"\n```\n\n<Calculating.\nResult: 120>", out.Text)
	sink.AssertExpectations(t)
}

func TestDispatchExecuteCodeFailureNotPersisted(t *testing.T) {
	sink := &mockSink{}
	d := NewDispatcher(nil, nil, nil, sandbox.New(0), nil, sink, nil)
	out := d.Dispatch(context.Background(), decision.Record{Tool: decision.ToolExecuteCode, Args: "result = 1/0"})
	assert.Contains(t, out.Text, "ZeroDivisionError: division by zero")
	sink.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDispatchMermaidAndAnswer(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, nil, nil)
	out := d.Dispatch(context.Background(), decision.Record{Text: "Here.", Tool: decision.ToolRenderMermaid, Args: "graph TD\nA-->B"})
	assert.Equal(t, "Here.\n\n```mermaid\ngraph TD\nA-->B\n```", out.Text)

	for _, tool := range []decision.Tool{decision.ToolAnswer, decision.ToolNone, decision.Tool("BOGUS")} {
		out := d.Dispatch(context.Background(), decision.Record{Text: "verbatim", Tool: tool})
		assert.Equal(t, "verbatim", out.Text)
	}
	out = d.Dispatch(context.Background(), decision.Record{Text: "x", Tool: decision.Tool("BOGUS")})
	assert.Equal(t, decision.ToolNone, out.Tool)
}

func TestDispatchQueueFullDoesNotLeak(t *testing.T) {
	web := &mockSearcher{}
	web.On("Search", mock.Anything, "q").Return(search.Result{Text: "found"}, nil)
	q := jobs.NewQueue[models.ToolResult]("persist", 1, 1, func(context.Context, models.ToolResult) error { return nil }, nil)
	require.NoError(t, q.Enqueue(context.Background(), models.ToolResult{}))

	d := NewDispatcher(nil, web, nil, nil, nil, q, nil)
	out := d.Dispatch(context.Background(), decision.Record{Tool: decision.ToolSearchWeb, Args: "q"})
	assert.Equal(t, "Searching the web for 'q'\n\nfound", out.Text)
}

type failingLLM struct{}

func (failingLLM) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("llm down")
}

func TestLLMHumanizer(t *testing.T) {
	h := NewLLMHumanizer(providers.NewMockProvider(8), nil)
	assert.Equal(t, "plain words", h.Humanize(context.Background(), "plain words"))

	h = NewLLMHumanizer(failingLLM{}, nil)
	assert.Equal(t, "keep me", h.Humanize(context.Background(), "keep me"))
}
