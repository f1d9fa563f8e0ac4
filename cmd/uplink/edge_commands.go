package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uplink/internal/asset"
	"uplink/internal/edge"
	"uplink/internal/status"
	"uplink/internal/workflow"
)

func newEdgeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Run the remote-site listener and requester",
	}
	cmd.AddCommand(newEdgeRunCommand(ctx))
	cmd.AddCommand(newEdgeRequestCommand(ctx))
	return cmd
}

func (c *commandContext) buildEdgeEngine() (*edge.Engine, *status.Tracker, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	bus, err := c.buildTransport()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	enricher, err := c.buildEnricher()
	if err != nil {
		return nil, nil, err
	}

	tracker := status.NewTracker(200, 0)
	return edge.NewEngine(cfg, bus, store, enricher, tracker, logger), tracker, nil
}

func newEdgeRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drain the broadcast and reply topics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			engine, tracker, err := ctx.buildEdgeEngine()
			if err != nil {
				return err
			}

			manager := workflow.NewManager(cfg, logger,
				workflow.Unit{Name: "asset-receive", Drain: engine.Receive},
				workflow.Unit{Name: "response-complete", Drain: engine.Complete},
			)
			return runWithLock("edge", cfg, manager, tracker)
		},
	}
}

func newEdgeRequestCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "request [asset-id]",
		Short: "Request full-resolution copies of received assets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("provide an asset id or --all")
			}

			engine, _, err := ctx.buildEdgeEngine()
			if err != nil {
				return err
			}

			// Catch up on pending broadcasts so the view reflects the stream.
			engine.Receive(cmd.Context())

			var requested []asset.Asset
			if all {
				for _, item := range engine.Received() {
					if !item.Requestable() {
						continue
					}
					if snapshot, published := engine.Request(cmd.Context(), item.ID); published {
						requested = append(requested, snapshot)
					}
				}
			} else {
				snapshot, published := engine.Request(cmd.Context(), args[0])
				if !published {
					return fmt.Errorf("%s: %w", args[0], errNotRequestable)
				}
				requested = append(requested, snapshot)
			}

			rows := make([][]string, 0, len(requested))
			for _, item := range requested {
				rows = append(rows, []string{item.ID, item.Title, string(item.Status)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Request every received asset that has no request in flight")
	return cmd
}
