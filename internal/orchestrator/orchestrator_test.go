package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"voxlit/internal/decision"
	"voxlit/internal/models"
	"voxlit/internal/prompts"
	"voxlit/internal/providers"
	"voxlit/internal/session"
	"voxlit/internal/storage"
	"voxlit/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	mu      sync.Mutex
	chat    string
	chatErr error
	sumErr  error
	reqs    []providers.GenerateRequest
}

func (s *stubLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	info := providers.ProviderInfo{Name: "stub", Model: "stub-1"}
	switch req.Operation {
	case "summarize":
		if s.sumErr != nil {
			return providers.GenerateResponse{}, info, s.sumErr
		}
		return providers.GenerateResponse{Text: "they talked"}, info, nil
	default:
		if s.chatErr != nil {
			return providers.GenerateResponse{}, info, s.chatErr
		}
		return providers.GenerateResponse{Text: s.chat}, info, nil
	}
}

func (s *stubLLM) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reqs))
	for _, r := range s.reqs {
		out = append(out, r.Operation)
	}
	return out
}

type stubRetriever struct {
	results []models.RetrievalResult
	err     error
	queries []string
}

func (s *stubRetriever) Search(_ context.Context, q string, _ int) ([]models.RetrievalResult, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

type linkRecorder struct{ urls []string }

func (l *linkRecorder) EnqueueURL(_ context.Context, url string) error {
	l.urls = append(l.urls, url)
	return nil
}

func newOrchestrator(llm providers.LLMProvider, kb Retriever) (*Orchestrator, *session.CacheStore) {
	store := session.NewCacheStore(0)
	d := tools.NewDispatcher(nil, nil, nil, nil, nil, nil, nil)
	return New(store, llm, kb, d, Options{}, nil), store
}

const answer = `{"text":"Hello there.","config":{"rate":10,"volume":3},"tool":"ANSWER","args":""}`

func TestRespondAnswers(t *testing.T) {
	llm := &stubLLM{chat: answer}
	o, store := newOrchestrator(llm, &stubRetriever{})
	turn := o.Respond(context.Background(), "u1", "hi")

	assert.Equal(t, "Hello there.", turn.Record.Text)
	assert.Equal(t, decision.ToolAnswer, turn.Record.Tool)
	assert.Equal(t, 10, turn.Settings.Rate)

	st, ok, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, st.History, 2)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "hi"}, st.History[0])
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Hello there."}, st.History[1])
	assert.Equal(t, 10, st.Settings.Rate)
	assert.Equal(t, 2, st.MessageCount)
}

func TestRespondMessageOrder(t *testing.T) {
	llm := &stubLLM{chat: answer}
	kb := &stubRetriever{results: []models.RetrievalResult{{
		ChunkID: "web:x:0", DocumentID: "web:x", Title: "Go", SourceKind: models.SourceWeb,
		Score: 0.9, ConversationalText: "Go has generics.",
	}}}
	o, _ := newOrchestrator(llm, kb)
	o.Respond(context.Background(), "u1", "tell me about go")

	require.Len(t, llm.reqs, 1)
	req := llm.reqs[0]
	assert.Equal(t, "chat", req.Operation)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.5, *req.Temperature)

	msgs := req.Messages
	require.Len(t, msgs, 5)
	assert.True(t, strings.HasSuffix(msgs[0].Content, prompts.ContextInstruction))
	assert.Contains(t, msgs[0].Content, "Go has generics.")
	assert.Contains(t, msgs[1].Content, "SEARCH_WEB")
	assert.Contains(t, msgs[2].Content, `"style":"Conversational"`)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "tell me about go"}, msgs[3])
	assert.Equal(t, prompts.Reminder, msgs[4].Content)
	assert.Equal(t, []string{"tell me about go"}, kb.queries)
}

func TestRespondWithoutKnowledge(t *testing.T) {
	llm := &stubLLM{chat: answer}
	o, _ := newOrchestrator(llm, &stubRetriever{err: errors.New("db down")})
	turn := o.Respond(context.Background(), "u1", "hi")
	assert.Equal(t, "Hello there.", turn.Record.Text)

	msgs := llm.reqs[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `"rate":0`)
}

func TestRespondLLMErrorBecomesNoneRecord(t *testing.T) {
	llm := &stubLLM{chatErr: errors.New("upstream unavailable")}
	o, store := newOrchestrator(llm, nil)
	audit := storage.NewMemoryAuditRepo(10)
	o.WithAudit(audit)

	turn := o.Respond(context.Background(), "u1", "hi")
	assert.Equal(t, decision.ToolNone, turn.Record.Tool)
	assert.Equal(t, "upstream unavailable", turn.Record.Text)
	assert.Equal(t, models.DefaultVoiceSettings(), turn.Settings)

	st, _, _ := store.Get(context.Background(), "u1")
	assert.Equal(t, "upstream unavailable", st.History[1].Content)

	calls := audit.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "chat", calls[0].Operation)
	assert.Equal(t, "failed", calls[0].Status)
	assert.Equal(t, "u1", calls[0].SessionID)
	assert.NotEmpty(t, calls[0].ErrorType)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, decision.Record) decision.Record {
	panic("nil tool client")
}

func TestRespondRecoversFromPanic(t *testing.T) {
	llm := &stubLLM{chat: answer}
	store := session.NewCacheStore(0)
	o := New(store, llm, nil, panickingDispatcher{}, Options{}, nil)

	var turn Turn
	require.NotPanics(t, func() {
		turn = o.Respond(context.Background(), "u1", "hi")
	})
	assert.Equal(t, decision.ToolNone, turn.Record.Tool)
	assert.Contains(t, turn.Record.Text, "nil tool client")
	assert.Equal(t, models.DefaultVoiceSettings(), turn.Settings)

	o.tools = tools.NewDispatcher(nil, nil, nil, nil, nil, nil, nil)
	turn = o.Respond(context.Background(), "u1", "hi again")
	assert.Equal(t, "Hello there.", turn.Record.Text)
}

func TestRespondSummarizesOnFifthMessage(t *testing.T) {
	llm := &stubLLM{chat: answer}
	o, store := newOrchestrator(llm, nil)
	ctx := context.Background()

	o.Respond(ctx, "u1", "one")
	o.Respond(ctx, "u1", "two")
	assert.NotContains(t, llm.ops(), "summarize")

	o.Respond(ctx, "u1", "three")
	assert.Equal(t, []string{"chat", "chat", "chat", "summarize"}, llm.ops())
	st, _, _ := store.Get(ctx, "u1")
	assert.Equal(t, "they talked", st.Summary)

	o.Respond(ctx, "u1", "four")
	last := llm.reqs[len(llm.reqs)-1]
	assert.Contains(t, last.Messages[1].Content, "they talked")
}

func TestRespondKeepsSummaryWhenSummarizeFails(t *testing.T) {
	llm := &stubLLM{chat: answer, sumErr: errors.New("rate limited")}
	store := session.NewCacheStore(0)
	ctx := context.Background()
	st := session.New("u1")
	st.Summary = "earlier"
	st.MessageCount = 4
	require.NoError(t, store.Put(ctx, "u1", st))

	o := New(store, llm, nil, tools.NewDispatcher(nil, nil, nil, nil, nil, nil, nil), Options{}, nil)
	o.Respond(ctx, "u1", "again")
	assert.Equal(t, []string{"chat", "summarize"}, llm.ops())

	got, _, _ := store.Get(ctx, "u1")
	assert.Equal(t, "earlier", got.Summary)
}

func TestRespondTrimsHistory(t *testing.T) {
	llm := &stubLLM{chat: answer}
	store := session.NewCacheStore(0)
	o := New(store, llm, nil, nil, Options{HistoryLimit: 4, SummaryEvery: 100}, nil)
	ctx := context.Background()
	for _, q := range []string{"a", "b", "c"} {
		o.Respond(ctx, "u1", q)
	}
	st, _, _ := store.Get(ctx, "u1")
	require.Len(t, st.History, 4)
	assert.Equal(t, "b", st.History[0].Content)
	assert.Equal(t, 6, st.MessageCount)
}

func TestRespondQueuesPDFLinks(t *testing.T) {
	llm := &stubLLM{chat: answer}
	o, _ := newOrchestrator(llm, nil)
	links := &linkRecorder{}
	o.WithLinkIngester(links)
	o.Respond(context.Background(), "u1", "read https://arxiv.org/pdf/1706.03762.pdf and http://x.org/a.pdf please")
	assert.Equal(t, []string{"https://arxiv.org/pdf/1706.03762.pdf", "http://x.org/a.pdf"}, links.urls)
}

func TestRespondDispatchesTools(t *testing.T) {
	llm := &stubLLM{chat: `{"text":"Here is a diagram.","config":{},"tool":"RENDER_MERMAID","args":"graph TD\nA-->B"}`}
	o, _ := newOrchestrator(llm, nil)
	turn := o.Respond(context.Background(), "u1", "draw")
	assert.Equal(t, "Here is a diagram.\n\n```mermaid\ngraph TD\nA-->B\n```", turn.Record.Text)
}

func TestCrossed(t *testing.T) {
	assert.False(t, crossed(0, 2, 5))
	assert.True(t, crossed(4, 6, 5))
	assert.True(t, crossed(3, 5, 5))
	assert.False(t, crossed(5, 7, 5))
}
