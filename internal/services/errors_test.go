package services

import (
	"errors"
	"strings"
	"testing"

	"bidsbuild/internal/runlog"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "mri", "dcm2niix", "conversion failed", base)
	if !errors.Is(err, ErrExternalTool) {
		t.Error("wrapped error should match its marker")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should preserve the cause")
	}
	for _, want := range []string{"mri", "dcm2niix", "conversion failed", "exit status 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "beh", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Error("nil marker should default to transient")
	}
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		err  error
		want runlog.Status
	}{
		{Wrap(ErrNotFound, "phys", "locate files", "no acq files", nil), runlog.StatusSkipped},
		{Wrap(ErrExternalTool, "mri", "dcm2niix", "", nil), runlog.StatusFailed},
		{Wrap(ErrValidation, "beh", "check counts", "", nil), runlog.StatusFailed},
		{errors.New("plain"), runlog.StatusFailed},
	}
	for _, tc := range tests {
		if got := FailureStatus(tc.err); got != tc.want {
			t.Errorf("FailureStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
