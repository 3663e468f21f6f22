package bids

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bidsbuild/internal/fmap"
	"bidsbuild/internal/patches"
)

// UpdateFuncSidecars writes the TaskName field into every BOLD sidecar in
// sessionDir/func, deriving the value from the filename's task entity.
// Sidecars that already carry TaskName are left alone.
func UpdateFuncSidecars(sessionDir string) error {
	sidecars, err := filepath.Glob(filepath.Join(sessionDir, "func", "*_bold.json"))
	if err != nil {
		return err
	}
	sort.Strings(sidecars)
	for _, path := range sidecars {
		task, err := taskEntity(filepath.Base(path))
		if err != nil {
			return err
		}
		if err := setJSONField(path, "TaskName", task, false); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFmapSidecars writes the IntendedFor list into each fieldmap
// sidecar in sessionDir/fmap, partitioning the session's BOLD runs via
// the association rules. Paths in the list are relative to the subject
// directory per the BIDS convention. Sidecars that already carry
// IntendedFor are left alone, but association still runs so a broken
// partition surfaces as an error.
func UpdateFmapSidecars(sessionDir, subject, session string, overrides patches.OverrideTable) error {
	sidecars, err := filepath.Glob(filepath.Join(sessionDir, "fmap", "*_epi.json"))
	if err != nil {
		return err
	}
	if len(sidecars) == 0 {
		return fmt.Errorf("no fieldmap sidecars in %s", sessionDir)
	}
	sort.Strings(sidecars)

	bold, err := filepath.Glob(filepath.Join(sessionDir, "func", "*_bold.nii.gz"))
	if err != nil {
		return err
	}
	sort.Strings(bold)

	subjectDir := filepath.Dir(sessionDir)
	rel := make([]string, len(bold))
	for i, path := range bold {
		r, err := filepath.Rel(subjectDir, path)
		if err != nil {
			return err
		}
		rel[i] = filepath.ToSlash(r)
	}

	lists, err := fmap.Associate(len(sidecars), rel, subject, session, overrides)
	if err != nil {
		return err
	}
	for i, path := range sidecars {
		if err := setJSONField(path, "IntendedFor", lists[i], false); err != nil {
			return err
		}
	}
	return nil
}

// taskEntity pulls the task-<label> entity out of a BIDS filename and
// returns the bare label.
func taskEntity(name string) (string, error) {
	for _, field := range strings.Split(name, "_") {
		if label, ok := strings.CutPrefix(field, "task-"); ok {
			return label, nil
		}
	}
	return "", fmt.Errorf("no task entity in %q", name)
}

// setJSONField loads a sidecar, sets key to value, and writes it back
// indented. When overwrite is false an existing key short-circuits.
func setJSONField(path, key string, value any, overwrite bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	if _, ok := fields[key]; ok && !overwrite {
		return nil
	}
	fields[key] = value
	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
