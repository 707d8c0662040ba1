// Package tools executes the tool chosen by a model turn and folds its output
// into the spoken answer.
package tools

import (
	"context"
	"fmt"
	"time"

	"voxlit/internal/decision"
	"voxlit/internal/models"
	"voxlit/internal/sandbox"
	"voxlit/internal/search"

	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, query string) (search.Result, error)
}

type CodeRunner interface {
	Run(ctx context.Context, src string) string
}

// ResultSink receives tool output for background persistence. Enqueue must
// not wait for the persistence itself.
type ResultSink interface {
	Enqueue(ctx context.Context, r models.ToolResult) error
}

type Dispatcher struct {
	Arxiv     Searcher
	Web       Searcher
	Patents   Searcher
	Code      CodeRunner
	Humanizer Humanizer
	Sink      ResultSink

	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(arxiv, web, patents Searcher, code CodeRunner, humanizer Humanizer, sink ResultSink, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if humanizer == nil {
		humanizer = Passthrough{}
	}
	return &Dispatcher{
		Arxiv:     arxiv,
		Web:       web,
		Patents:   patents,
		Code:      code,
		Humanizer: humanizer,
		Sink:      sink,
		logger:    logger.Named("dispatcher"),
		now:       time.Now,
	}
}

// Dispatch runs rec's tool and returns rec with Text replaced by the
// composed answer. Collaborator failures are rendered inline.
func (d *Dispatcher) Dispatch(ctx context.Context, rec decision.Record) decision.Record {
	out := rec
	switch rec.Tool {
	case decision.ToolSearchArxiv:
		result := d.search(ctx, d.Arxiv, "Arxiv Error", decision.ToolSearchArxiv, models.SourceArxiv, rec.Args)
		out.Text = rec.Text + "\n" + d.Humanizer.Humanize(ctx, result)
	case decision.ToolSearchWeb:
		result := d.search(ctx, d.Web, "Web Search Error", decision.ToolSearchWeb, models.SourceWeb, rec.Args)
		out.Text = fmt.Sprintf("Searching the web for '%s'\n\n", rec.Args) + d.Humanizer.Humanize(ctx, result)
	case decision.ToolSearchPatents:
		result := d.search(ctx, d.Patents, "Patent Search Error", decision.ToolSearchPatents, models.SourcePatent, rec.Args)
		out.Text = fmt.Sprintf("Searching patent databases for '%s'\n\n", rec.Args) + d.Humanizer.Humanize(ctx, result)
	case decision.ToolExecuteCode:
		result := d.execute(ctx, rec.Args)
		out.Text = "```\n" + rec.Args + "\n```\n\n" + d.Humanizer.Humanize(ctx, rec.Text+"\nResult: "+result)
	case decision.ToolRenderMermaid:
		out.Text = rec.Text + "\n\n```mermaid\n" + rec.Args + "\n```"
	case decision.ToolAnswer, decision.ToolNone:
		out.Text = rec.Text
	default:
		out.Tool = decision.ToolNone
		out.Text = rec.Text
	}
	return out
}

func (d *Dispatcher) search(ctx context.Context, s Searcher, errLabel string, tool decision.Tool, kind models.SourceKind, query string) string {
	if s == nil {
		return errLabel + ": search is not configured"
	}
	res, err := s.Search(ctx, query)
	if err != nil {
		d.logger.Warn("search failed", zap.String("tool", string(tool)), zap.Error(err))
		return errLabel + ": " + err.Error()
	}
	if !res.Empty {
		d.persist(ctx, models.ToolResult{
			Tool:       string(tool),
			SourceKind: kind,
			Query:      query,
			Output:     res.Text,
			Title:      res.Title,
		})
	}
	return res.Text
}

func (d *Dispatcher) execute(ctx context.Context, src string) string {
	if d.Code == nil {
		return "Code execution failed due to an error: RuntimeError: sandbox is not configured"
	}
	result := d.Code.Run(ctx, src)
	if !sandbox.Failed(result) {
		d.persist(ctx, models.ToolResult{
			Tool:       string(decision.ToolExecuteCode),
			SourceKind: models.SourcePython,
			Query:      src,
			Output:     "Code:\n" + src + "\n\nResult:\n" + result,
		})
	}
	return result
}

func (d *Dispatcher) persist(ctx context.Context, r models.ToolResult) {
	if d.Sink == nil {
		return
	}
	r.CreatedAt = d.now().UTC()
	if err := d.Sink.Enqueue(ctx, r); err != nil {
		d.logger.Warn("tool result not queued for persistence",
			zap.String("tool", r.Tool),
			zap.Error(err),
		)
	}
}
