// Package command implements the flowid CLI.
package command

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalParams is shared by every subcommand.
type globalParams struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// NewCommand returns the root command for the flowid CLI.
func NewCommand() (cmd *cobra.Command) {
	params := &globalParams{}

	cmd = &cobra.Command{
		Use:          "flowid",
		Short:        "community ID flow fingerprinting",
		Long:         `flowid computes Community ID v1 fingerprints for single flows or for streams of NDJSON flow records.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return params.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if params.logger != nil {
				_ = params.logger.Sync()
			}
		},
	}

	cmd.AddCommand(
		newHashCommand(params),
		newEnrichCommand(params),
	)

	cmd.PersistentFlags().StringVarP(&params.configPath, "config", "c", "", "path to a YAML config file (defaults are used when empty)")
	cmd.PersistentFlags().StringVar(&params.logLevel, "log-level", "", "override logging.level")

	return cmd
}

func (p *globalParams) load() error {
	cfg := config.Default()
	if p.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(p.configPath); err != nil {
			return err
		}
	}
	if p.logLevel != "" {
		cfg.Logging.Level = p.logLevel
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	p.cfg = cfg
	p.logger = logger
	return nil
}
