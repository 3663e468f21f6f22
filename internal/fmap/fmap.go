// Package fmap partitions a session's functional BOLD runs between its
// fieldmap acquisitions and produces the IntendedFor lists written into
// each fieldmap JSON sidecar.
package fmap

import (
	"fmt"
	"strings"

	"bidsbuild/internal/patches"
)

// Protocol history: older sessions carry a single fieldmap that corrects
// every run; newer sessions carry two, each correcting half the runs.
const maxFieldmaps = 2

// defaultSplit is the number of BOLD runs assigned to the first fieldmap
// when no override applies. The acquisition protocol interleaves the second
// fieldmap after the fourth functional run.
const defaultSplit = 4

// Associate partitions boldPaths between count fieldmaps, in fieldmap
// order. boldPaths are session-relative paths to BOLD NIfTIs, lexically
// sorted. The override table replaces the default partition for sessions
// that deviated from protocol.
func Associate(count int, boldPaths []string, subject, session string, overrides patches.OverrideTable) ([][]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("fieldmap association: no fieldmaps for %s %s", subject, session)
	}
	if count > maxFieldmaps {
		return nil, fmt.Errorf("fieldmap association: %d fieldmaps found for %s %s, more than %d is unsupported",
			count, subject, session, maxFieldmaps)
	}
	if len(boldPaths) == 0 {
		return nil, fmt.Errorf("fieldmap association: no BOLD runs for %s %s", subject, session)
	}

	if count == 1 {
		single := make([]string, len(boldPaths))
		copy(single, boldPaths)
		return [][]string{single}, nil
	}

	if keys, ok := overrides.Lookup(subject, session); ok {
		return fromOverride(keys, boldPaths, subject, session)
	}

	ordered := restToEnd(boldPaths)
	split := defaultSplit
	if split > len(ordered) {
		split = len(ordered)
	}
	first := ordered[:split:split]
	second := ordered[split:]
	return [][]string{first, second}, nil
}

// fromOverride builds each fieldmap's list by resolving the override's
// ordered "<task>_<run>" identifiers against the BOLD paths. Every
// identifier must resolve to exactly one path.
func fromOverride(keys map[string][]string, boldPaths []string, subject, session string) ([][]string, error) {
	result := make([][]string, 0, maxFieldmaps)
	for _, fmapKey := range []string{"fmap1", "fmap2"} {
		ids, ok := keys[fmapKey]
		if !ok {
			return nil, fmt.Errorf("fieldmap association: override for %s %s missing %s", subject, session, fmapKey)
		}
		matched := make([]string, 0, len(ids))
		for _, id := range ids {
			task, run, err := patches.SplitRunID(id)
			if err != nil {
				return nil, fmt.Errorf("fieldmap association: %s %s: %w", subject, session, err)
			}
			needle := fmt.Sprintf("task-%s_run-%s", task, run)
			var hits []string
			for _, path := range boldPaths {
				if strings.Contains(path, needle) {
					hits = append(hits, path)
				}
			}
			switch len(hits) {
			case 1:
				matched = append(matched, hits[0])
			case 0:
				return nil, fmt.Errorf("fieldmap association: no BOLD run matches override %q for %s %s", id, subject, session)
			default:
				return nil, fmt.Errorf("fieldmap association: %d BOLD runs match override %q for %s %s, check task and run values",
					len(hits), id, subject, session)
			}
		}
		result = append(result, matched)
	}
	return result, nil
}

// restToEnd returns a copy of boldPaths with the first resting-state run
// moved to the end, preserving the order of everything else.
func restToEnd(boldPaths []string) []string {
	ordered := make([]string, len(boldPaths))
	copy(ordered, boldPaths)
	for i, path := range ordered {
		if strings.Contains(path, "task-rest") {
			rest := ordered[i]
			ordered = append(ordered[:i], ordered[i+1:]...)
			ordered = append(ordered, rest)
			break
		}
	}
	return ordered
}
