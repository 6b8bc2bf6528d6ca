package telegram

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}
	h := applyMiddleware(func(context.Context, *bot.Bot, *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mark("outer"), mark("inner")})

	h(context.Background(), nil, &models.Update{})

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewTelegramBot("", slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestRegisterHandlersNilBot(t *testing.T) {
	t.Parallel()

	if err := RegisterHandlers(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil); err == nil {
		t.Error("expected error for nil bot")
	}
}
