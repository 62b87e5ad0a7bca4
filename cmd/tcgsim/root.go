package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/config"
	"github.com/tcgworld/tcg-engine/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tcgsim",
		Short:         "Validate rule documents and run headless games",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	cmd.AddCommand(newValidateCmd(opts), newSimulateCmd(opts))
	return cmd
}

// load reads the configuration and builds a logger from it.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	} else if o.configPath == "" {
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
