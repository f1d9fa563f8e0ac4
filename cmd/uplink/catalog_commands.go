package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the durable asset tables",
	}
	cmd.AddCommand(newCatalogShowCommand(ctx))
	cmd.AddCommand(newCatalogHistoryCommand(ctx))
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var tier string
	var where string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the deduplicated records of a tier's asset table",
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

			records, present := store.FindAll(cmd.Context(), tier, cfg.Catalog.Table)
			if where != "" {
				field, value, ok := strings.Cut(where, "=")
				if !ok {
					return fmt.Errorf("--where expects field=value, got %q", where)
				}
				records, present = store.FindByField(cmd.Context(), tier, cfg.Catalog.Table, field, value)
			}
			if !present {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s has never been written\n", tier, cfg.Catalog.Table)
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.ID,
					record.Title,
					truncate(record.Keywords, 40),
					truncate(record.Analysis, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Keywords", "Analysis"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "hq", "Catalog tier to inspect (hq or edge)")
	cmd.Flags().StringVar(&where, "where", "", "Filter records by field=value")
	return cmd
}

func newCatalogHistoryCommand(ctx *commandContext) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the append snapshots of a tier's asset table",
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

			entries, present := store.History(cmd.Context(), tier, cfg.Catalog.Table)
			if !present {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s has never been written\n", tier, cfg.Catalog.Table)
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.ID,
					fmt.Sprintf("%d", entry.RecordCount),
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Snapshot", "Records", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "hq", "Catalog tier to inspect (hq or edge)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
