// Package tasks implements the scheduled maintenance jobs of the helpdesk bot:
// closing stale bot-assisted tickets and keeping the history database small.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/quickbase"
)

// Tickets is the part of the ticketing backend the tasks need.
type Tickets interface {
	ListByStatus(ctx context.Context, status string, cutoff time.Time, limit int) ([]quickbase.Ticket, error)
	UpdateStatuses(ctx context.Context, recordIDs []int64, status string) (int, error)
}

// History is the part of the history store the tasks need.
type History interface {
	PruneTurns(ctx context.Context, cutoff time.Time) (int64, error)
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Tickets Tickets
	History History
	Config  *config.Config
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
