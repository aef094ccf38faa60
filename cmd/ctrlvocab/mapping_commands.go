package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/report"
	"ctrlvocab/internal/snapshot"
)

func newMappingCommand(ctx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect and convert mapping snapshots",
	}

	mappingCmd.AddCommand(newMappingShowCommand(ctx))
	mappingCmd.AddCommand(newMappingConvertCommand(ctx))

	return mappingCmd
}

func newMappingShowCommand(ctx *commandContext) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a mapping snapshot as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[0]
			entries, err := snapshot.Load(cmd.Context(), path, snapshot.Options{LockTimeout: cfg.LockTimeout()})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeSection(out, "mapping", mappingTable(report.Mapping(entries, nil)), colorize)

			if !history {
				return nil
			}
			records, err := snapshot.Exports(cmd.Context(), path)
			if err != nil {
				return faults.Wrap(faults.ErrValidation, "mapping", "history", path, err)
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ExportedAt.Local().Format(time.DateTime),
					rec.RunID,
					strconv.Itoa(rec.Entries),
				})
			}
			writeSection(out, "exports", renderTable(tableSpec{
				headers: []string{"Exported", "Run", "Keys"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight},
			}), colorize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Also list the exports recorded in an sqlite snapshot")
	return cmd
}

func newMappingConvertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "convert SRC DST",
		Short: "Re-encode a mapping snapshot; formats follow the file extensions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := snapshot.Options{LockTimeout: cfg.LockTimeout()}
			entries, err := snapshot.Load(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if err := snapshot.Save(cmd.Context(), args[1], entries, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d keys to %s\n", len(entries), args[1])
			return nil
		},
	}
}
