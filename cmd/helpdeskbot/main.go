// Package main contains the entrypoint for the helpdesk bot server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/helpdeskbot/internal/app"
	"github.com/edgard/helpdeskbot/internal/bot"
	"github.com/edgard/helpdeskbot/internal/bot/handlers"
	"github.com/edgard/helpdeskbot/internal/bot/tasks"
	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/logger"
	"github.com/edgard/helpdeskbot/internal/sanitize"
	"github.com/edgard/helpdeskbot/internal/server"
	"github.com/edgard/helpdeskbot/internal/teams"
	"github.com/edgard/helpdeskbot/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON, "version", version)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize components", "error", err)
		return 1
	}
	defer a.Close()

	var auth teams.Authenticator = teams.NewTokenVerifier(ctx, cfg.Teams, log)
	if cfg.Teams.SkipAuth {
		log.Warn("Teams token verification disabled")
		auth = teams.NoAuth{}
	}
	webhook := teams.NewHandler(teams.HandlerDeps{
		Logger:         log,
		Messages:       cfg.Messages,
		Auth:           auth,
		Connector:      teams.NewConnector(ctx, cfg.Teams, log),
		Desk:           a.Desk,
		ProcessTimeout: cfg.Teams.ProcessTimeout,
	})

	srv := server.New(server.Deps{
		Config:           cfg.Server,
		Logger:           log,
		Webhook:          webhook,
		Metrics:          a.Metrics,
		Gatherer:         a.Registry,
		Version:          version,
		KnowledgeEntries: a.Knowledge.Len(),
		Checks: map[string]server.Checker{
			"database":  a.Store,
			"quickbase": a.Tickets,
		},
	})

	tg, err := newTelegram(ctx, cfg, log, a)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:  log,
		Tickets: a.Tickets,
		History: a.Store,
		Config:  cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	runErr := bot.NewBot(log, srv, sched, tg).Run(ctx)
	// The server is down; let accepted activities finish before closing the database.
	webhook.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}

// newTelegram returns nil when no token is configured.
func newTelegram(ctx context.Context, cfg *config.Config, log *slog.Logger, a *app.App) (*tgbot.Bot, error) {
	if cfg.Telegram.Token == "" {
		log.Info("Telegram channel disabled")
		return nil, nil
	}

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Messages: cfg.Messages,
		Desk:     a.Desk,
		Text:     sanitize.NewPlainTextPolicy(),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.TelegramMiddleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	)
	if err != nil {
		return nil, err
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved Telegram bot info", "bot_id", me.ID, "bot_username", me.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		return nil, err
	}
	return tg, nil
}
