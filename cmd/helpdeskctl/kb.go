package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/helpdeskbot/internal/app"
	"github.com/edgard/helpdeskbot/internal/config"
)

func kbCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect the keyword knowledge base",
	}
	cmd.PersistentFlags().StringVar(&path, "file", "", "knowledge base YAML file (default: built-in entries)")

	cmd.AddCommand(&cobra.Command{
		Use:   "match <text>",
		Short: "Show which entry, if any, answers a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := app.LoadKnowledge(config.KnowledgeConfig{Path: path})
			if err != nil {
				return err
			}
			entry, ok := kb.Match(strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No match: the question goes to the generator.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry:    %s\nCategory: %s\n\n%s\n", entry.Name, entry.Category, entry.Response)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List entries and their keywords",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kb, err := app.LoadKnowledge(config.KnowledgeConfig{Path: path})
			if err != nil {
				return err
			}
			for _, e := range kb.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", e.Name, strings.Join(e.Keywords, ", "))
			}
			return nil
		},
	})
	return cmd
}
