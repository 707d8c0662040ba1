// Package orchestrator runs one conversational turn: it loads the session,
// assembles the prompt around retrieved knowledge, asks the model for a
// decision record, dispatches any tool and saves the session.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"voxlit/internal/decision"
	"voxlit/internal/knowledge"
	"voxlit/internal/models"
	"voxlit/internal/prompts"
	"voxlit/internal/providers"
	"voxlit/internal/session"
	"voxlit/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var pdfLinkPattern = regexp.MustCompile(`https?://\S+\.pdf`)

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, rec decision.Record) decision.Record
}

// LinkIngester accepts PDF links found in user messages.
type LinkIngester interface {
	EnqueueURL(ctx context.Context, url string) error
}

type Options struct {
	HistoryLimit    int
	SummaryEvery    int
	RetrievalK      int
	ContextMaxChars int
}

func (o Options) withDefaults() Options {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 20
	}
	if o.SummaryEvery <= 0 {
		o.SummaryEvery = 5
	}
	if o.RetrievalK <= 0 {
		o.RetrievalK = 5
	}
	if o.ContextMaxChars <= 0 {
		o.ContextMaxChars = knowledge.DefaultContextChars
	}
	return o
}

// Turn is the outcome of one Respond call.
type Turn struct {
	Record   decision.Record      `json:"record"`
	Settings models.VoiceSettings `json:"settings"`
}

type Orchestrator struct {
	sessions session.Store
	llm      providers.LLMProvider
	kb       Retriever
	tools    Dispatcher
	audit    storage.AuditRecorder
	links    LinkIngester
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

func New(sessions session.Store, llm providers.LLMProvider, kb Retriever, tools Dispatcher, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		sessions: sessions,
		llm:      llm,
		kb:       kb,
		tools:    tools,
		opts:     opts.withDefaults(),
		logger:   logger.Named("orchestrator"),
		now:      time.Now,
	}
}

// WithAudit records every model call made during a turn.
func (o *Orchestrator) WithAudit(a storage.AuditRecorder) *Orchestrator {
	o.audit = a
	return o
}

// WithLinkIngester queues PDF links mentioned by the user for ingestion.
func (o *Orchestrator) WithLinkIngester(l LinkIngester) *Orchestrator {
	o.links = l
	return o
}

// Respond never fails: model errors become a NONE record carrying the
// error text, and storage errors are logged. A panic anywhere in the turn
// is recovered into the same kind of record.
func (o *Orchestrator) Respond(ctx context.Context, userID, userText string) (turn Turn) {
	st := session.New(userID)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked",
				zap.String("user_id", userID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			turn = Turn{Record: decision.Failure(fmt.Errorf("internal error: %v", r)), Settings: st.Settings}
		}
	}()

	st = o.load(ctx, userID)
	o.queueLinks(ctx, userText)

	count := st.MessageCount
	st.History = append(st.History, models.Message{Role: models.RoleUser, Content: userText})
	st.MessageCount++

	var results []models.RetrievalResult
	if o.kb != nil {
		var err error
		results, err = o.kb.Search(ctx, userText, o.opts.RetrievalK)
		if err != nil {
			o.logger.Warn("knowledge search failed", zap.String("user_id", userID), zap.Error(err))
			results = nil
		}
	}

	rec := o.decide(ctx, userID, o.buildMessages(st, results), st.Settings.Temperature)
	if o.tools != nil {
		rec = o.tools.Dispatch(ctx, rec)
	}
	st.Settings = st.Settings.Merge(decision.FilterConfig(rec.Config))

	st.History = append(st.History, models.Message{Role: models.RoleAssistant, Content: rec.Text})
	st.MessageCount++
	if crossed(count, st.MessageCount, o.opts.SummaryEvery) {
		o.summarize(ctx, userID, &st)
	}

	if over := len(st.History) - o.opts.HistoryLimit; over > 0 {
		st.History = append([]models.Message(nil), st.History[over:]...)
	}
	st.UpdatedAt = o.now().UTC()
	if err := o.sessions.Put(ctx, userID, st); err != nil {
		o.logger.Error("save session", zap.String("user_id", userID), zap.Error(err))
	}
	return Turn{Record: rec, Settings: st.Settings}
}

func (o *Orchestrator) load(ctx context.Context, userID string) session.State {
	st, ok, err := o.sessions.Get(ctx, userID)
	if err != nil {
		o.logger.Error("load session", zap.String("user_id", userID), zap.Error(err))
		return session.New(userID)
	}
	if !ok {
		return session.New(userID)
	}
	return st
}

func (o *Orchestrator) buildMessages(st session.State, results []models.RetrievalResult) []models.Message {
	msgs := make([]models.Message, 0, len(st.History)+6)
	if block := knowledge.FormatContext(results, o.opts.ContextMaxChars); block != "" {
		msgs = append(msgs, system(block+"\n\n"+prompts.ContextInstruction))
	}
	if directives := knowledge.Directives(results); len(directives) > 0 {
		msgs = append(msgs, system(strings.Join(directives, "\n")))
	}
	settingsJSON, err := json.Marshal(st.Settings)
	if err != nil {
		settingsJSON = []byte("{}")
	}
	msgs = append(msgs, system(prompts.BuildPersona(string(settingsJSON))))
	if s := strings.TrimSpace(st.Summary); s != "" {
		msgs = append(msgs, system("Summary of the conversation so far:\n"+s))
	}
	history := st.History
	if len(history) > o.opts.HistoryLimit {
		history = history[len(history)-o.opts.HistoryLimit:]
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, system(prompts.Reminder))
	return msgs
}

func (o *Orchestrator) decide(ctx context.Context, userID string, msgs []models.Message, temperature float64) decision.Record {
	resp, err := o.generate(ctx, userID, providers.GenerateRequest{
		Operation:   "chat",
		Messages:    msgs,
		Temperature: providers.Temperature(temperature),
	})
	if err != nil {
		o.logger.Warn("chat generation failed", zap.String("user_id", userID), zap.Error(err))
		return decision.Failure(err)
	}
	return decision.Parse(resp.Text)
}

// summarize folds the history into the rolling summary. On failure the
// previous summary stays.
func (o *Orchestrator) summarize(ctx context.Context, userID string, st *session.State) {
	msgs := make([]models.Message, 0, len(st.History)+1)
	msgs = append(msgs, system(prompts.BuildSummaryPrompt(st.Summary)))
	msgs = append(msgs, st.History...)
	resp, err := o.generate(ctx, userID, providers.GenerateRequest{
		Operation:   "summarize",
		Messages:    msgs,
		Temperature: providers.Temperature(0.3),
	})
	if err != nil {
		o.logger.Warn("summarize failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if s := strings.TrimSpace(resp.Text); s != "" {
		st.Summary = s
	}
}

func (o *Orchestrator) generate(ctx context.Context, userID string, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	start := o.now()
	resp, info, err := o.llm.Generate(ctx, req)
	if o.audit != nil {
		rec := storage.LLMCallRecord{
			CallID:       uuid.NewString(),
			Operation:    req.Operation,
			SessionID:    userID,
			ProviderName: info.Name,
			Model:        info.Model,
			Status:       "ok",
			LatencyMS:    o.now().Sub(start).Milliseconds(),
		}
		if err != nil {
			rec.Status = "failed"
			rec.ErrorType = string(providers.ClassifyError(err))
		}
		if aerr := o.audit.Insert(ctx, rec); aerr != nil {
			o.logger.Debug("audit llm call", zap.Error(aerr))
		}
	}
	return resp, err
}

func (o *Orchestrator) queueLinks(ctx context.Context, text string) {
	if o.links == nil {
		return
	}
	for _, link := range pdfLinkPattern.FindAllString(text, -1) {
		if err := o.links.EnqueueURL(ctx, link); err != nil {
			o.logger.Warn("queue pdf link", zap.String("url", link), zap.Error(err))
			continue
		}
		o.logger.Info("pdf link queued", zap.String("url", link))
	}
}

// crossed reports whether a count moving from before to after passed a
// multiple of every.
func crossed(before, after, every int) bool {
	return before/every != after/every
}

func system(content string) models.Message {
	return models.Message{Role: models.RoleSystem, Content: content}
}
