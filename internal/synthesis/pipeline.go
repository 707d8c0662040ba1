// Package synthesis streams an answer as ordered, independently failing
// audio and text records.
package synthesis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"voxlit/internal/models"
	"voxlit/internal/speech"

	"go.uber.org/zap"
)

const (
	StatusPlaying = "playing"
	StatusDone    = "done"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, settings models.VoiceSettings) ([]byte, error)
}

// Record is one NDJSON line of the stream. AudioChunk is nil for pacing and
// display-only units.
type Record struct {
	FullText   string  `json:"full_text,omitempty"`
	AudioChunk *string `json:"audio_chunk"`
	TextChunk  string  `json:"text_chunk"`
	Index      int     `json:"index"`
	Status     string  `json:"status"`
}

// Done is the terminal record.
func Done() Record {
	return Record{Status: StatusDone}
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Status == StatusDone {
		return []byte(`{"status":"done"}`), nil
	}
	type plain Record
	return json.Marshal(plain(r))
}

type Pipeline struct {
	synth  Synthesizer
	logger *zap.Logger
}

func NewPipeline(synth Synthesizer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{synth: synth, logger: logger.Named("synthesis")}
}

// Run segments fullText and emits one record per unit, then Done. The first
// emitted record always carries fullText, without audio if its synthesis
// failed. Any later unit whose synthesis fails is skipped, leaving a gap in
// Index. Cancellation of
// ctx stops the stream without Done and without error; an emit error stops
// it and is returned.
func (p *Pipeline) Run(ctx context.Context, fullText string, settings models.VoiceSettings, emit func(Record) error) error {
	units := speech.Segment(fullText)
	fullTextPending := true
	inFence, speakFence := false, true

	for idx, unit := range units {
		if ctx.Err() != nil {
			p.logger.Debug("stream cancelled", zap.Int("index", idx))
			return nil
		}

		rec := Record{TextChunk: unit, Index: idx, Status: StatusPlaying}
		spoken := ""
		if strings.HasPrefix(unit, "```") {
			if !inFence {
				inFence = true
				speakFence = !strings.HasPrefix(unit, "```mermaid")
			} else {
				inFence = false
			}
		} else if !inFence || speakFence {
			spoken = strings.TrimSpace(speech.Normalize(unit))
		}

		if spoken != "" {
			audio, err := p.synth.Synthesize(ctx, spoken, settings)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if !fullTextPending {
					p.logger.Warn("unit synthesis failed, skipping",
						zap.Int("index", idx),
						zap.Error(err),
					)
					continue
				}
				// The first record still carries the answer text.
				p.logger.Warn("first unit synthesis failed, sending text only",
					zap.Int("index", idx),
					zap.Error(err),
				)
			} else {
				encoded := base64.StdEncoding.EncodeToString(audio)
				rec.AudioChunk = &encoded
			}
		}

		if fullTextPending {
			rec.FullText = fullText
			fullTextPending = false
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	if fullTextPending && strings.TrimSpace(fullText) != "" {
		if err := emit(Record{FullText: fullText, Status: StatusPlaying}); err != nil {
			return err
		}
	}
	return emit(Done())
}
