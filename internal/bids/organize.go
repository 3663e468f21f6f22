package bids

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bidsbuild/internal/fileutil"
)

// ErrMissingAnat reports a session that finished conversion without a
// T1w anatomical volume. Downstream defacing cannot proceed without it.
var ErrMissingAnat = errors.New("no T1w anatomical found after organizing")

// Organize moves dcm2niix output sitting at the top of sessionDir into
// the BIDS anat/func/fmap subdirectories, renaming each file per the
// naming table. Already-organized sessions are a no-op since the glob
// only sees top-level files. Returns the organized paths, sorted.
func Organize(sessionDir, subject, session, task string) ([]string, error) {
	var moved []string
	for _, pattern := range []string{"*.nii.gz", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(sessionDir, pattern))
		if err != nil {
			return nil, err
		}
		for _, src := range matches {
			name := filepath.Base(src)
			target, err := Resolve(RawStem(name), subject, session, task)
			if err != nil {
				return nil, fmt.Errorf("organize %s %s: %w", subject, session, err)
			}
			destDir := filepath.Join(sessionDir, target.Dir)
			if err := fileutil.EnsureDir(destDir); err != nil {
				return nil, err
			}
			dst := filepath.Join(destDir, target.Stem+extOf(name))
			if err := os.Rename(src, dst); err != nil {
				return nil, fmt.Errorf("organize %s %s: %w", subject, session, err)
			}
			moved = append(moved, dst)
		}
	}
	sort.Strings(moved)

	anat, err := filepath.Glob(filepath.Join(sessionDir, "anat", "*T1w.nii.gz"))
	if err != nil {
		return nil, err
	}
	if len(anat) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingAnat, subject, session)
	}
	return moved, nil
}

// extOf preserves the double extension of compressed NIfTIs.
func extOf(name string) string {
	if strings.HasSuffix(name, ".nii.gz") {
		return ".nii.gz"
	}
	return filepath.Ext(name)
}
