package main

import (
	"context"
	"path/filepath"
	"testing"

	"bidsbuild/internal/runlog"
)

func TestStatusCommandEmpty(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No conversions recorded yet.")
}

func TestStatusCommandSummarizesLatestInvocation(t *testing.T) {
	configPath, projectDir := writeTestConfig(t)

	store, err := runlog.Open(filepath.Join(projectDir, "derivatives", "bidsbuild.db"))
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	ctx := context.Background()
	seed := func(subject, session string, dt runlog.DataType, status runlog.Status, detail string) {
		rec, err := store.Start(ctx, "inv-1", subject, session, dt)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := store.Finish(ctx, rec, status, detail); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}
	seed("sub-ER0009", "ses-day2", runlog.DataMRI, runlog.StatusCompleted, "")
	seed("sub-ER0009", "ses-day2", runlog.DataBeh, runlog.StatusFailed, "run-01 events: onset without offset")
	seed("sub-ER0009", "ses-day2", runlog.DataPhys, runlog.StatusSkipped, "")
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Invocation inv-1")
	requireContains(t, out, "Completed")
	requireContains(t, out, "Skipped")
	requireContains(t, out, "Failures")
	requireContains(t, out, "sub-ER0009")
	requireContains(t, out, "onset without offset")
}
