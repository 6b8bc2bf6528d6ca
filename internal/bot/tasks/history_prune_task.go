package tasks

import (
	"context"
	"fmt"
)

// newHistoryPruneTask deletes conversation turns older than history.retention.
func newHistoryPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_prune")

	return func(ctx context.Context) error {
		cutoff := deps.now().Add(-deps.Config.History.Retention)

		removed, err := deps.History.PruneTurns(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "History prune failed", "error", err)
			return fmt.Errorf("prune history: %w", err)
		}

		log.InfoContext(ctx, "Pruned conversation history", "removed", removed, "cutoff", cutoff)
		return nil
	}
}
