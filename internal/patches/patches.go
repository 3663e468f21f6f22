package patches

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed wash_patch.json
var defaultWashPatch []byte

//go:embed fmap_override.json
var defaultFmapOverride []byte

// WashTable describes the wash offset-marker logging defect. For affected
// subjects the wash trial type's offset marker must be replaced with a
// task-specific block-end marker. Subjects in HalfPatched recorded correct
// offsets in ses-day3 and are only patched in ses-day2.
type WashTable struct {
	Affected    []string          `json:"affected"`
	HalfPatched []string          `json:"half_patched"`
	Offsets     map[string]string `json:"offsets"`
}

// NeedsPatch reports whether the wash offset for a subject and session is
// defective, and if so which offset marker to substitute for the task.
func (w WashTable) NeedsPatch(task, session, subject string) (string, bool) {
	if session == "ses-day3" && contains(w.HalfPatched, subject) {
		return "", false
	}
	if !contains(w.Affected, subject) {
		return "", false
	}
	offset, ok := w.Offsets[task]
	if !ok {
		return "", false
	}
	return offset, true
}

// OverrideTable maps subject → session → fieldmap key ("fmap1"/"fmap2") →
// ordered "<task>_<run>" identifiers naming the BOLD runs each fieldmap
// corrects.
type OverrideTable map[string]map[string]map[string][]string

// Lookup returns the fieldmap-key map for a subject and session, or false
// when the session follows the default partition.
func (o OverrideTable) Lookup(subject, session string) (map[string][]string, bool) {
	sessions, ok := o[subject]
	if !ok {
		return nil, false
	}
	keys, ok := sessions[session]
	return keys, ok
}

// Tables bundles the loaded patch tables.
type Tables struct {
	Wash         WashTable
	FmapOverride OverrideTable
}

// Load returns the patch tables, replacing embedded defaults with the
// contents of any non-empty file paths.
func Load(washPath, fmapPath string) (Tables, error) {
	var t Tables
	if err := loadJSON(washPath, defaultWashPatch, &t.Wash); err != nil {
		return Tables{}, fmt.Errorf("wash patch table: %w", err)
	}
	if err := loadJSON(fmapPath, defaultFmapOverride, &t.FmapOverride); err != nil {
		return Tables{}, fmt.Errorf("fmap override table: %w", err)
	}
	if err := t.FmapOverride.validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Defaults returns the embedded tables. Intended for tests and tooling.
func Defaults() Tables {
	t, err := Load("", "")
	if err != nil {
		// The embedded tables are compiled in; failing to parse them is a
		// programming error.
		panic(err)
	}
	return t
}

func (o OverrideTable) validate() error {
	for subject, sessions := range o {
		for session, keys := range sessions {
			for fmapKey, runs := range keys {
				if fmapKey != "fmap1" && fmapKey != "fmap2" {
					return fmt.Errorf("fmap override %s %s: unexpected key %q", subject, session, fmapKey)
				}
				for _, id := range runs {
					task, _, err := SplitRunID(id)
					if err != nil {
						return fmt.Errorf("fmap override %s %s: %w", subject, session, err)
					}
					if task != "movies" && task != "scenarios" && task != "rest" {
						return fmt.Errorf("fmap override %s %s: unexpected task %q", subject, session, task)
					}
				}
			}
		}
	}
	return nil
}

// SplitRunID splits a "<task>_<run>" override identifier.
func SplitRunID(id string) (task, run string, err error) {
	for i := 0; i < len(id); i++ {
		if id[i] == '_' {
			task, run = id[:i], id[i+1:]
			if task == "" || run == "" {
				break
			}
			return task, run, nil
		}
	}
	return "", "", fmt.Errorf("unexpected run identifier format %q", id)
}

func loadJSON(path string, fallback []byte, dst any) error {
	data := fallback
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return err
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
