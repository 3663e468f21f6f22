package bids

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeries reports a scanner series name absent from the naming
// table. This means an unhandled acquisition protocol and must propagate
// rather than be skipped.
var ErrUnknownSeries = errors.New("unrecognized scanner series")

// Target is the BIDS destination for one converted file.
type Target struct {
	// Dir is the BIDS subdirectory (anat, func, fmap).
	Dir string
	// Stem is the BIDS filename without extension.
	Stem string
}

// Resolve maps the portion of a dcm2niix output filename preceding the
// embedded acquisition date to its BIDS destination. task is the session's
// BIDS task string (task-movies or task-scenarios), used for functional
// runs. Pure function.
//
// The fieldmap protocol changed mid-study: older sessions emit a single
// DICOM_Field_Map_P_A series, newer ones emit P_A_run1 and P_A_run_2.
func Resolve(rawName, subject, session, task string) (Target, error) {
	base := fmt.Sprintf("%s_%s", subject, session)

	run, hasRun := runEntity(rawName)
	switch {
	case rawName == "DICOM_EmoRep_anat":
		return Target{Dir: "anat", Stem: base + "_T1w"}, nil
	case hasRun && strings.HasPrefix(rawName, "DICOM_EmoRep_run"):
		return Target{Dir: "func", Stem: fmt.Sprintf("%s_%s_run-%s_bold", base, task, run)}, nil
	case hasRun && strings.HasPrefix(rawName, "DICOM_Rest_run"):
		return Target{Dir: "func", Stem: fmt.Sprintf("%s_task-rest_run-%s_bold", base, run)}, nil
	case rawName == "DICOM_Field_Map_P_A":
		return Target{Dir: "fmap", Stem: base + "_acq-rpe_dir-PA_epi"}, nil
	case rawName == "DICOM_Field_Map_P_A_run1" || rawName == "DICOM_Field_Map_P_A_run_2":
		return Target{Dir: "fmap", Stem: fmt.Sprintf("%s_acq-rpe_dir-PA_run-%s_epi", base, run)}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownSeries, rawName)
	}
}

// runEntity extracts the zero-padded run number embedded in a raw series
// name: the substring after "run", with any leading underscore stripped.
func runEntity(rawName string) (string, bool) {
	idx := strings.Index(rawName, "run")
	if idx < 0 {
		return "", false
	}
	run := rawName[idx+len("run"):]
	run = strings.TrimPrefix(run, "_")
	if run == "" {
		return "", false
	}
	if len(run) < 2 {
		run = "0" + run
	}
	return run, true
}

// RawStem returns the portion of a converter output filename preceding the
// embedded acquisition date (the first "_20" occurrence).
func RawStem(filename string) string {
	if idx := strings.Index(filename, "_20"); idx >= 0 {
		return filename[:idx]
	}
	return filename
}
