// Package generator produces free-text answers for questions the knowledge
// base cannot handle. Providers are selected by configuration and share one
// retry and circuit-breaker policy.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/resilience"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("generator returned an empty response")

// Role of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one earlier message in the conversation, oldest first.
type Turn struct {
	Role    string
	Content string
}

// Prompt is a question plus the conversation leading up to it.
type Prompt struct {
	Message string
	History []Turn
}

// Client generates an answer for a prompt.
type Client interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// NewClient builds the configured provider wrapped in the retry and breaker policy.
func NewClient(ctx context.Context, cfg config.GeneratorConfig, log *slog.Logger) (Client, error) {
	var (
		provider Client
		err      error
	)

	switch cfg.Provider {
	case "openai", "":
		provider, err = newOpenAIClient(cfg)
	case "gemini":
		provider, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Generator client initialized",
		"component", "generator",
		"provider", provider.Name(),
		"model", cfg.Model)

	return NewResilient(provider, resilience.Policy{
		Name:      "generate:" + provider.Name(),
		Attempts:  cfg.MaxRetries + 1,
		Delay:     cfg.RetryDelay,
		Timeout:   cfg.Timeout,
		Retryable: Retryable,
	}, resilience.NewBreaker(resilience.BreakerConfig{
		Name: "generator",
	})), nil
}

// Resilient decorates a Client with a retry policy and a circuit breaker.
type Resilient struct {
	next    Client
	policy  resilience.Policy
	breaker *resilience.Breaker
}

// NewResilient wraps next. A nil breaker disables circuit breaking.
func NewResilient(next Client, policy resilience.Policy, breaker *resilience.Breaker) *Resilient {
	return &Resilient{next: next, policy: policy, breaker: breaker}
}

// Generate calls the wrapped client; the breaker sees one result per Generate call.
func (r *Resilient) Generate(ctx context.Context, p Prompt) (string, error) {
	return resilience.Call(r.breaker, func() (string, error) {
		return resilience.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
			return r.next.Generate(ctx, p)
		})
	})
}

// Name returns the wrapped provider's name.
func (r *Resilient) Name() string {
	return r.next.Name()
}
