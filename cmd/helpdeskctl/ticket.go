package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/quickbase"
)

const lookupTimeout = 30 * time.Second

// quickbaseClient builds a ticketing client from the configuration.
func (o *options) quickbaseClient() (*quickbase.Client, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, err
	}
	return quickbase.NewClient(cfg.QuickBase, log), nil
}

func ticketCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Look up QuickBase tickets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status <ticket-number>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qb, err := opts.quickbaseClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()

			t, err := qb.GetTicket(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desk.FormatTicket(t))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "mine <email>",
		Short: "List a requester's unresolved tickets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qb, err := opts.quickbaseClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()

			tickets, err := qb.UserTickets(ctx, args[0], 25)
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No open tickets.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), desk.FormatTickets(tickets))
			return nil
		},
	})
	return cmd
}

func statsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ticket counts by status and priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			qb, err := opts.quickbaseClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()

			stats, err := qb.Statistics(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printStats(w io.Writer, s *quickbase.Stats) {
	fmt.Fprintf(w, "Open tickets:    %d\n", s.Open)
	fmt.Fprintf(w, "Bot assisted:    %d\n", s.BotAssisted)
	fmt.Fprintf(w, "Resolved today:  %d\n", s.ResolvedToday)
	fmt.Fprintln(w, "By priority:")
	for _, p := range quickbase.Priorities {
		fmt.Fprintf(w, "  %-9s %d\n", p, s.ByPriority[p])
	}
	fmt.Fprintln(w, "By status:")
	statuses := make([]string, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  %-13s %d\n", status, s.ByStatus[status])
	}
}

func fieldsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the tickets table schema, to fill in quickbase.fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			qb, err := opts.quickbaseClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()

			fields, err := qb.Fields(ctx)
			if err != nil {
				return err
			}
			for _, f := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-30s %s\n", f.ID, f.Label, f.FieldType)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
