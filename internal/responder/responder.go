// Package responder answers a support question from the keyword table, falling
// back to the generator and finally to a static message.
package responder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/helpdeskbot/internal/generator"
	"github.com/edgard/helpdeskbot/internal/knowledge"
	"github.com/edgard/helpdeskbot/internal/logger"
	"github.com/edgard/helpdeskbot/internal/metrics"
	"github.com/edgard/helpdeskbot/internal/resilience"
)

// Answer sources.
const (
	SourceKB        = "kb"
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// Answer is the text shown to the user and where it came from.
type Answer struct {
	Body   string
	Source string
	// Entry is the matched keyword entry. Nil unless Source is SourceKB.
	Entry *knowledge.Entry
}

// Request is a question plus earlier turns of the same conversation.
type Request struct {
	Message string
	History []generator.Turn
}

// Responder is safe for concurrent use.
type Responder struct {
	kb       *knowledge.Base
	gen      generator.Client
	fallback string
	metrics  *metrics.Recorder
	log      *slog.Logger
}

// New creates a Responder. gen may be nil, in which case every keyword miss
// gets the fallback message.
func New(kb *knowledge.Base, gen generator.Client, fallback string, rec *metrics.Recorder, log *slog.Logger) *Responder {
	return &Responder{
		kb:       kb,
		gen:      gen,
		fallback: fallback,
		metrics:  rec,
		log:      log.With("component", "responder"),
	}
}

// Respond never fails: generator errors are logged and answered with the fallback.
func (r *Responder) Respond(ctx context.Context, req Request) Answer {
	answer := r.respond(ctx, req)
	r.metrics.AnswerServed(answer.Source)
	return answer
}

func (r *Responder) respond(ctx context.Context, req Request) Answer {
	if entry, ok := r.kb.Match(req.Message); ok {
		r.log.DebugContext(ctx, "Keyword match", "entry", entry.Name)
		body := entry.Response
		if entry.FollowUp != "" {
			body += "\n\n" + entry.FollowUp
		}
		return Answer{Body: body, Source: SourceKB, Entry: &entry}
	}

	if r.gen == nil {
		return Answer{Body: r.fallback, Source: SourceFallback}
	}

	startTime := time.Now()
	text, err := r.gen.Generate(ctx, generator.Prompt{Message: req.Message, History: req.History})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = generator.ErrEmptyResponse
	}
	if err != nil {
		r.metrics.GeneratorFailed()
		attrs := []any{
			"provider", r.gen.Name(),
			"message_preview", logger.Truncate(req.Message, 50),
			"duration", time.Since(startTime),
			"error", err,
		}
		switch {
		case resilience.IsOpen(err):
			r.log.WarnContext(ctx, "Generator circuit open, using fallback", attrs...)
		case errors.Is(err, context.Canceled):
			r.log.WarnContext(ctx, "Generation cancelled, using fallback", attrs...)
		default:
			r.log.ErrorContext(ctx, "Generation failed, using fallback", attrs...)
		}
		return Answer{Body: r.fallback, Source: SourceFallback}
	}

	r.log.InfoContext(ctx, "Generated answer",
		"provider", r.gen.Name(),
		"history_turns", len(req.History),
		"answer_length", len(text),
		"duration", time.Since(startTime))
	return Answer{Body: text, Source: SourceGenerated}
}
