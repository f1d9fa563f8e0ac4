package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uplink/internal/hq"
	"uplink/internal/status"
	"uplink/internal/workflow"
)

func newHQCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hq",
		Short: "Run the central-site pipeline",
	}
	cmd.AddCommand(newHQRunCommand(ctx))
	cmd.AddCommand(newHQSelectCommand(ctx))
	return cmd
}

func newHQRunCommand(ctx *commandContext) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain the pipeline and request topics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			bus, err := ctx.buildTransport()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			enricher, err := ctx.buildEnricher()
			if err != nil {
				return err
			}
			previews, err := ctx.previewRetriever()
			if err != nil {
				return err
			}
			originals, err := ctx.fulfillmentRetriever()
			if err != nil {
				return err
			}

			tracker := status.NewTracker(200, 0)
			engine := hq.NewEngine(cfg, bus, store, previews, enricher, tracker, logger)
			responder := hq.NewResponder(cfg, bus, originals, tracker, logger)

			// The in-memory broker does not outlive the process, so an
			// offline run can seed its own pipeline from the feed.
			if seed {
				source, err := ctx.buildFeed()
				if err != nil {
					return err
				}
				pool, err := source.Pool(cmd.Context())
				if err != nil {
					return err
				}
				engine.Select(cmd.Context(), pool, cfg.Workflow.SelectCount)
			}

			manager := workflow.NewManager(cfg, logger,
				workflow.Unit{Name: "pipeline-advance", Drain: engine.Advance},
				workflow.Unit{Name: "request-listen", Drain: responder.Listen},
			)
			return runWithLock("hq", cfg, manager, tracker)
		},
	}

	cmd.Flags().BoolVar(&seed, "select", false, "Sample the feed into the pipeline before draining")
	return cmd
}

func newHQSelectCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Sample assets from the feed and publish them to the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			bus, err := ctx.buildTransport()
			if err != nil {
				return err
			}
			source, err := ctx.buildFeed()
			if err != nil {
				return err
			}

			pool, err := source.Pool(cmd.Context())
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.Workflow.SelectCount
			}

			tracker := status.NewTracker(200, 0)
			engine := hq.NewEngine(cfg, bus, nil, nil, nil, tracker, logger)
			selected := engine.Select(cmd.Context(), pool, count)

			rows := make([][]string, 0, len(selected))
			for _, item := range selected {
				rows = append(rows, []string{item.ID, item.Title, string(item.Stage)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Stage"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of assets to sample (defaults to workflow.select_count)")
	return cmd
}
