package command

import (
	"Go2FlowID/internal/engine/manager"
	"Go2FlowID/internal/enricher"
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/ndjson"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type enrichParams struct {
	output  string
	workers int
}

// newEnrichCommand returns the enrich command, which fingerprints NDJSON
// records read from a file or stdin.
func newEnrichCommand(global *globalParams) (cmd *cobra.Command) {
	params := &enrichParams{}

	cmd = &cobra.Command{
		Use:   "enrich [file]",
		Short: "add community IDs to NDJSON flow records",
		Long: `enrich reads one JSON object per line, writes the community ID of each record
into the configured target field and prints the records as NDJSON. Records that
cannot be fingerprinted are passed through with a tag explaining why.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var out *ndjson.Writer
			if params.output != "" {
				w, createErr := ndjson.Create(params.output)
				if createErr != nil {
					return createErr
				}
				defer func() {
					if cerr := w.Close(); cerr != nil && err == nil {
						err = fmt.Errorf("failed to close output: %w", cerr)
					}
				}()
				out = w
			} else {
				out = ndjson.NewWriter(cmd.OutOrStdout())
			}

			return runEnrich(global, params, in, out)
		},
	}

	cmd.Flags().StringVarP(&params.output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().IntVarP(&params.workers, "workers", "w", 1, "number of enrichment workers; more than one does not preserve input order")

	return cmd
}

func runEnrich(global *globalParams, params *enrichParams, in io.Reader, out model.Sink) error {
	cfg := *global.cfg
	cfg.Engine.NumWorkers = params.workers
	logger := global.logger

	e := enricher.New(cfg.CommunityID, logger.Named("enricher"), nil)
	mgr := manager.NewManager(&cfg, e, logger.Named("manager"), nil, out)
	mgr.Start()

	var skipped int
	readErr := ndjson.Read(in, func(rec model.Record) error {
		mgr.Input() <- rec
		return nil
	}, func(err error) {
		skipped++
		logger.Warn("Skipping undecodable line", zap.Error(err))
	})
	mgr.Stop()

	logger.Info("Enrichment finished",
		zap.Uint64("records", mgr.Processed()),
		zap.Uint64("enriched", mgr.Enriched()),
		zap.Int("skipped", skipped),
	)
	if readErr != nil {
		return readErr
	}
	// Write errors stick to the buffered writer, so the last flush reports them.
	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
