// Package bot wires the long-running parts of the helpdesk bot together: the
// webhook server, the task scheduler and the optional Telegram listener.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Server is the webhook HTTP server.
type Server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Bot manages the lifecycle of its components.
type Bot struct {
	logger    *slog.Logger
	server    Server
	scheduler *Scheduler
	tgBot     *tgbot.Bot
}

// NewBot creates a Bot. tgBot may be nil when the Telegram channel is disabled.
func NewBot(logger *slog.Logger, server Server, scheduler *Scheduler, tgBot *tgbot.Bot) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		server:    server,
		scheduler: scheduler,
		tgBot:     tgBot,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails, then shuts the others down.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.server.Start(); err != nil {
			return fmt.Errorf("webhook server: %w", err)
		}
		if gCtx.Err() == nil {
			return errors.New("webhook server stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutting down webhook server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down webhook server", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram listener")
			b.tgBot.Start(gCtx)
			if gCtx.Err() == nil {
				return errors.New("telegram listener stopped unexpectedly")
			}
			b.logger.Info("Telegram listener stopped")
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
