package responder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/edgard/helpdeskbot/internal/generator"
	"github.com/edgard/helpdeskbot/internal/knowledge"
	"github.com/edgard/helpdeskbot/internal/metrics"
)

const fallback = "Please contact the IT service desk."

type stubGenerator struct {
	text   string
	err    error
	calls  int
	prompt generator.Prompt
}

func (s *stubGenerator) Generate(_ context.Context, p generator.Prompt) (string, error) {
	s.calls++
	s.prompt = p
	return s.text, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func newResponder(gen generator.Client) *Responder {
	return New(knowledge.Default(), gen, fallback, metrics.New(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRespondKeywordHit(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "should not be used"}
	answer := newResponder(gen).Respond(context.Background(), Request{Message: "I can't reset my password"})

	if answer.Source != SourceKB {
		t.Fatalf("Source = %q, want %q", answer.Source, SourceKB)
	}
	if answer.Entry == nil || answer.Entry.Name != "password_reset" {
		t.Fatalf("Entry = %+v, want password_reset", answer.Entry)
	}
	if answer.Body == "" {
		t.Error("empty body")
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on keyword hit", gen.calls)
	}
}

func TestRespondGenerated(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: "  1. Power-cycle the printer\n2. Reseat the toner  "}
	history := []generator.Turn{
		{Role: generator.RoleUser, Content: "hello"},
		{Role: generator.RoleAssistant, Content: "hi"},
	}
	answer := newResponder(gen).Respond(context.Background(), Request{
		Message: "My printer shows error E-402 blinking orange",
		History: history,
	})

	if answer.Source != SourceGenerated {
		t.Fatalf("Source = %q, want %q", answer.Source, SourceGenerated)
	}
	if answer.Body != "1. Power-cycle the printer\n2. Reseat the toner" {
		t.Errorf("Body = %q", answer.Body)
	}
	if answer.Entry != nil {
		t.Error("generated answer must not carry an entry")
	}
	if gen.prompt.Message != "My printer shows error E-402 blinking orange" || len(gen.prompt.History) != 2 {
		t.Errorf("prompt = %+v", gen.prompt)
	}
}

func TestRespondFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  generator.Client
	}{
		{name: "generator error", gen: &stubGenerator{err: errors.New("upstream 503")}},
		{name: "empty output", gen: &stubGenerator{text: "   "}},
		{name: "cancelled", gen: &stubGenerator{err: context.Canceled}},
		{name: "no generator", gen: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			answer := newResponder(tt.gen).Respond(context.Background(), Request{Message: "my monitor is upside down"})
			if answer.Source != SourceFallback || answer.Body != fallback {
				t.Errorf("answer = %+v, want fallback", answer)
			}
		})
	}
}

func TestRespondAppendsFollowUp(t *testing.T) {
	t.Parallel()

	kb, err := knowledge.New([]knowledge.Entry{{
		Name:     "printer",
		Keywords: []string{"printer"},
		Response: "Restart the printer.",
		FollowUp: "Still stuck? Tell me the error code.",
	}})
	if err != nil {
		t.Fatal(err)
	}

	r := New(kb, nil, fallback, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	answer := r.Respond(context.Background(), Request{Message: "Printer jam"})
	if answer.Body != "Restart the printer.\n\nStill stuck? Tell me the error code." {
		t.Errorf("Body = %q", answer.Body)
	}
}
