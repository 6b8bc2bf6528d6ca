package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/helpdeskbot/internal/quickbase"
)

// autoCloseBatch bounds the records moved per run; the next run picks up the rest.
const autoCloseBatch = 200

// newAutoCloseTask resolves Bot Assisted tickets nobody escalated within
// scheduler.auto_close_after.
func newAutoCloseTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "auto_close")

	return func(ctx context.Context) error {
		startTime := time.Now()
		cutoff := deps.now().Add(-deps.Config.Scheduler.AutoCloseAfter)

		stale, err := deps.Tickets.ListByStatus(ctx, quickbase.StatusBotAssisted, cutoff, autoCloseBatch)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list stale tickets", "error", err)
			return fmt.Errorf("list stale tickets: %w", err)
		}
		if len(stale) == 0 {
			log.InfoContext(ctx, "No stale bot-assisted tickets", "cutoff", cutoff)
			return nil
		}

		ids := make([]int64, 0, len(stale))
		for _, t := range stale {
			ids = append(ids, t.RecordID)
		}

		closed, err := deps.Tickets.UpdateStatuses(ctx, ids, quickbase.StatusResolved)
		if err != nil {
			log.ErrorContext(ctx, "Failed to close stale tickets", "count", len(ids), "error", err)
			return fmt.Errorf("close stale tickets: %w", err)
		}

		log.InfoContext(ctx, "Closed stale bot-assisted tickets",
			"found", len(ids),
			"closed", closed,
			"duration", time.Since(startTime))
		return nil
	}
}
