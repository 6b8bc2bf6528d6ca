package tasks

import "context"

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// respect ctx cancellation and return an error when they fail.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used under
// scheduler.tasks in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"auto_close":      newAutoCloseTask(deps),
		"history_prune":   newHistoryPruneTask(deps),
		"sql_maintenance": newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
