package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The tracker lives inside a running engine process; this command reports
// the durable view instead: per-tier catalog record and snapshot counts.
func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the durable state of both tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rows := make([][]string, 0, 2)
			for _, tier := range []string{"hq", "edge"} {
				records, present := store.FindAll(cmd.Context(), tier, cfg.Catalog.Table)
				snapshots, _ := store.History(cmd.Context(), tier, cfg.Catalog.Table)
				state := "never written"
				if present {
					state = "present"
				}
				rows = append(rows, []string{
					tier,
					state,
					fmt.Sprintf("%d", len(records)),
					fmt.Sprintf("%d", len(snapshots)),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tier", "Table", "Records", "Snapshots"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "catalog: %s\n", store.Path())
			return nil
		},
	}
}
