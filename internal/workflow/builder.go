package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"bidsbuild/internal/config"
	"bidsbuild/internal/convert"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/patches"
	"bidsbuild/internal/runlog"
	"bidsbuild/internal/services"
)

// Options tune a build run.
type Options struct {
	// InvocationID correlates run-log records from one build invocation.
	InvocationID string
	// Deface enables anatomical defacing after conversion.
	Deface bool
}

// Builder runs the conversion pipeline for subjects.
type Builder struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *runlog.Store
	tables patches.Tables
	conv   *convert.Converter
	opts   Options
}

// NewBuilder constructs a builder bound to its collaborators.
func NewBuilder(cfg *config.Config, logger *slog.Logger, store *runlog.Store,
	tables patches.Tables, conv *convert.Converter, opts Options) *Builder {
	return &Builder{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "workflow"),
		store:  store,
		tables: tables,
		conv:   conv,
		opts:   opts,
	}
}

// Result summarizes one subject's build.
type Result struct {
	Subject         string
	SkippedSessions []string
	Completed       int
	Skipped         int
	Failed          int
}

type step struct {
	dataType runlog.DataType
	run      func(context.Context, Session) error
}

// BuildSubject converts every valid session of one subject. Step failures
// are isolated per data type and recorded in the run log; the returned
// error covers only infrastructure faults (unreadable sourcedata, run-log
// writes).
func (b *Builder) BuildSubject(ctx context.Context, subID string) (*Result, error) {
	sessions, skipped, err := sessionsOf(b.cfg.Sourcedata(), subID)
	if err != nil {
		return nil, fmt.Errorf("read sourcedata for %s: %w", subID, err)
	}
	result := &Result{Subject: "sub-" + subID, SkippedSessions: skipped}
	for _, name := range skipped {
		b.logger.Warn("skipping malformed session directory",
			slog.String(logging.FieldSubject, subID),
			slog.String("directory", name))
	}

	for _, sess := range sessions {
		if err := b.buildSession(ctx, sess, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (b *Builder) buildSession(ctx context.Context, sess Session, result *Result) error {
	logger := logging.WithSubject(b.logger, sess.Subject, sess.Name)
	logger.Info("building session", slog.String(logging.FieldTask, sess.Task))

	steps := []step{
		{runlog.DataMRI, b.runMRI},
		{runlog.DataBeh, b.runBehavior},
		{runlog.DataRate, b.runRestRatings},
		{runlog.DataPhys, b.runPhysio},
	}
	for _, st := range steps {
		rec, err := b.store.Start(ctx, b.opts.InvocationID, sess.Subject, sess.Name, st.dataType)
		if err != nil {
			return err
		}
		stepLogger := logger.With(slog.String(logging.FieldDataType, string(st.dataType)))

		if runErr := st.run(ctx, sess); runErr != nil {
			status := services.FailureStatus(runErr)
			if status == runlog.StatusSkipped {
				result.Skipped++
				stepLogger.Info("step skipped", slog.String("reason", runErr.Error()))
			} else {
				result.Failed++
				stepLogger.Error("step failed", slog.String("error", runErr.Error()))
			}
			if err := b.store.Finish(ctx, rec, status, runErr.Error()); err != nil {
				return err
			}
			continue
		}

		result.Completed++
		stepLogger.Info("step completed")
		if err := b.store.Finish(ctx, rec, runlog.StatusCompleted, ""); err != nil {
			return err
		}
	}
	return nil
}

// rawSessionDir is the rawdata directory a session converts into.
func (b *Builder) rawSessionDir(sess Session) string {
	return filepath.Join(b.cfg.Rawdata(), sess.Subject, sess.Name)
}
