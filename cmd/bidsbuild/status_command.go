package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var projDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the most recent build",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.projectConfig(projDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			dbPath := filepath.Join(cfg.Derivatives(), "bidsbuild.db")
			if !fileutil.Exists(dbPath) {
				fmt.Fprintln(out, "No conversions recorded yet.")
				return nil
			}
			store, err := runlog.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			invocation, err := store.LatestInvocation(cmd.Context())
			if err != nil {
				return err
			}
			if invocation == "" {
				fmt.Fprintln(out, "No conversions recorded yet.")
				return nil
			}

			counts, err := store.Summary(cmd.Context(), invocation)
			if err != nil {
				return err
			}

			caser := cases.Title(language.English)
			fmt.Fprintf(out, "Invocation %s\n", invocation)
			rows := make([][]string, 0, len(counts))
			for _, status := range []runlog.Status{
				runlog.StatusCompleted, runlog.StatusSkipped, runlog.StatusFailed, runlog.StatusPending,
			} {
				if n, ok := counts[status]; ok {
					rows = append(rows, []string{caser.String(string(status)), strconv.Itoa(n)})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Steps"}, rows,
				[]columnAlignment{alignLeft, alignRight}))

			failures, err := store.List(cmd.Context(), runlog.Filter{
				InvocationID: invocation,
				Status:       runlog.StatusFailed,
			})
			if err != nil {
				return err
			}
			if len(failures) == 0 {
				return nil
			}

			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Failures", colorize) {
				fmt.Fprintln(out, line)
			}
			failureRows := make([][]string, 0, len(failures))
			for _, rec := range failures {
				failureRows = append(failureRows, []string{
					rec.Subject, rec.Session, string(rec.DataType), rec.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Subject", "Session", "Step", "Detail"}, failureRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVar(&projDir, "proj-dir", "", "Project directory holding sourcedata/ and rawdata/")
	return cmd
}
