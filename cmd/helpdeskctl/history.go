package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgard/helpdeskbot/internal/database"
)

// withStore opens the history database for the duration of fn.
func (o *options) withStore(ctx context.Context, fn func(context.Context, database.Store) error) error {
	cfg, log, err := o.load()
	if err != nil {
		return err
	}
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open history database %s: %w", cfg.Database.Path, err)
	}
	defer database.CloseDB(db)
	return fn(ctx, database.NewStore(db, log))
}

func historyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and trim the local conversation history",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count stored turns and conversations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(cmd.Context(), func(ctx context.Context, s database.Store) error {
				stats, err := s.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Turns:          %d\n", stats.Turns)
				fmt.Fprintf(cmd.OutOrStdout(), "Conversations:  %d\n", stats.Conversations)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <conversation-id>",
		Short: "Forget one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(ctx context.Context, s database.Store) error {
				n, err := s.ClearConversation(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d turns.\n", n)
				return nil
			})
		},
	})

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete turns older than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return opts.withStore(cmd.Context(), func(ctx context.Context, s database.Store) error {
				n, err := s.PruneTurns(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d turns.\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the oldest turn to keep")
	cmd.AddCommand(prune)
	return cmd
}
