package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bidsbuild/internal/bids"
	"bidsbuild/internal/convert"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/patches"
	"bidsbuild/internal/runlog"
	"bidsbuild/internal/workflow"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		subAll  bool
		subList []string
		projDir string
		deface  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Convert sourcedata subjects into the BIDS rawdata layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.projectConfig(projDir)
			if err != nil {
				return err
			}
			if subAll == (len(subList) > 0) {
				return errors.New("choose exactly one of --sub-all or --sub-list")
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				LogDir: cfg.Paths.LogDir,
			})
			if err != nil {
				return err
			}

			subjects := subList
			if subAll {
				subjects, err = workflow.DiscoverSubjects(cfg.Sourcedata())
				if err != nil {
					return err
				}
			}
			if len(subjects) == 0 {
				return fmt.Errorf("no subjects found under %s", cfg.Sourcedata())
			}

			// One build at a time per project; a second invocation fails
			// fast instead of interleaving writes.
			lock := flock.New(filepath.Join(cfg.Derivatives(), "bidsbuild.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire build lock: %w", err)
			}
			if !locked {
				return errors.New("another bidsbuild build is already running for this project")
			}
			defer func() { _ = lock.Unlock() }()

			if err := bids.WriteDatasetFiles(cfg.Rawdata()); err != nil {
				return err
			}
			tables, err := patches.Load(cfg.Tables.WashPatch, cfg.Tables.FmapOverride)
			if err != nil {
				return err
			}
			store, err := runlog.Open(filepath.Join(cfg.Derivatives(), "bidsbuild.db"))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			invocationID := uuid.NewString()
			builder := workflow.NewBuilder(cfg, logger, store, tables, convert.New(cfg, logger),
				workflow.Options{InvocationID: invocationID, Deface: deface})

			var completed, skipped, failed int
			for _, subID := range subjects {
				result, err := builder.BuildSubject(cmd.Context(), subID)
				if err != nil {
					return err
				}
				completed += result.Completed
				skipped += result.Skipped
				failed += result.Failed
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d subjects: %d steps completed, %d skipped, %d failed\n",
				len(subjects), completed, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d conversion steps failed; run `bidsbuild status` for details", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&subAll, "sub-all", false, "Process every subject under sourcedata")
	cmd.Flags().StringSliceVar(&subList, "sub-list", nil, "Subject identifiers to process (e.g. ER0009)")
	cmd.Flags().StringVar(&projDir, "proj-dir", "", "Project directory holding sourcedata/ and rawdata/")
	cmd.Flags().BoolVar(&deface, "deface", false, "Deface anatomical volumes after conversion")
	return cmd
}
