// Package app assembles the components shared by the server and the operator
// CLI: knowledge base, generator, ticketing client, history store and desk.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/database"
	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/generator"
	"github.com/edgard/helpdeskbot/internal/knowledge"
	"github.com/edgard/helpdeskbot/internal/metrics"
	"github.com/edgard/helpdeskbot/internal/quickbase"
	"github.com/edgard/helpdeskbot/internal/responder"
)

// App holds the initialized components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	Store     database.Store
	Knowledge *knowledge.Base
	Generator generator.Client
	Tickets   *quickbase.Client
	Registry  *prometheus.Registry
	Metrics   *metrics.Recorder
	Responder *responder.Responder
	Desk      *desk.Desk
}

// New initializes every component from cfg. Close releases them.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	startTime := time.Now()

	kb, err := LoadKnowledge(cfg.Knowledge)
	if err != nil {
		return nil, err
	}
	log.Info("Knowledge base loaded", "entries", kb.Len(), "path", cfg.Knowledge.Path)

	gen, err := generator.NewClient(ctx, cfg.Generator, log)
	if err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", cfg.Database.Path, err)
	}
	store := database.NewStore(db, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	tickets := quickbase.NewClient(cfg.QuickBase, log)
	resp := responder.New(kb, gen, cfg.Messages.Fallback, rec, log)

	a := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Store:     store,
		Knowledge: kb,
		Generator: gen,
		Tickets:   tickets,
		Registry:  reg,
		Metrics:   rec,
		Responder: resp,
		Desk: desk.New(desk.Deps{
			Logger:       log,
			Messages:     cfg.Messages,
			Tickets:      tickets,
			Responder:    resp,
			History:      store,
			Metrics:      rec,
			HistoryTurns: cfg.History.MaxTurns,
		}),
	}

	log.Info("Components initialized", "duration", time.Since(startTime))
	return a, nil
}

// LoadKnowledge reads the keyword table, falling back to the built-in entries
// when no path is configured.
func LoadKnowledge(cfg config.KnowledgeConfig) (*knowledge.Base, error) {
	if cfg.Path == "" {
		return knowledge.Default(), nil
	}
	kb, err := knowledge.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base %s: %w", cfg.Path, err)
	}
	return kb, nil
}

// Close releases the database connection.
func (a *App) Close() {
	database.CloseDB(a.DB)
}
