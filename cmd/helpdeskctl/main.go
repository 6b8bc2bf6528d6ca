// Package main contains helpdeskctl, the operator CLI: an interactive chat
// through the full answer pipeline plus ticket and knowledge-base lookups.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/logger"
)

var version = "dev"

type options struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "helpdeskctl",
		Short:         "Operate the IT helpdesk bot from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./config.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(chatCmd(opts))
	root.AddCommand(ticketCmd(opts))
	root.AddCommand(statsCmd(opts))
	root.AddCommand(fieldsCmd(opts))
	root.AddCommand(historyCmd(opts))
	root.AddCommand(kbCmd())
	return root
}

// load reads the configuration and builds a text logger on stderr.
func (o *options) load() (*config.Config, *slog.Logger, error) {
	log := logger.New(os.Stderr, o.logLevel, false)
	slog.SetDefault(log)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, log, nil
}
