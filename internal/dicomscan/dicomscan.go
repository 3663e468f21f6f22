// Package dicomscan surveys an organized DICOM tree before conversion,
// counting files per protocol directory and reading each protocol's
// SeriesDescription header.
package dicomscan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Series summarizes one protocol directory.
type Series struct {
	// Dir is the protocol directory name relative to the scanned root.
	Dir string
	// Description is the DICOM SeriesDescription header, empty when no
	// file in the directory parses.
	Description string
	// FileCount is the number of .dcm files found.
	FileCount int
}

// Survey is the result of scanning a session's DICOM tree.
type Survey struct {
	Total  int
	Series []Series
}

// Scan walks dicomDir recursively and summarizes its .dcm files grouped
// by top-level protocol directory. Unparseable files still count; their
// directory just reports no description.
func Scan(dicomDir string) (*Survey, error) {
	counts := make(map[string]int)
	descriptions := make(map[string]string)

	err := filepath.WalkDir(dicomDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dcm") {
			return nil
		}
		rel, err := filepath.Rel(dicomDir, path)
		if err != nil {
			return err
		}
		dir := protocolDir(rel)
		counts[dir]++
		if _, ok := descriptions[dir]; !ok {
			descriptions[dir] = seriesDescription(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan dicom tree: %w", err)
	}

	survey := &Survey{}
	for dir, n := range counts {
		survey.Total += n
		survey.Series = append(survey.Series, Series{
			Dir:         dir,
			Description: descriptions[dir],
			FileCount:   n,
		})
	}
	sort.Slice(survey.Series, func(i, j int) bool {
		return survey.Series[i].Dir < survey.Series[j].Dir
	})
	return survey, nil
}

// protocolDir returns the first path element of a relative file path, or
// "." for files sitting at the scanned root.
func protocolDir(rel string) string {
	rel = filepath.ToSlash(rel)
	if idx := strings.IndexByte(rel, '/'); idx >= 0 {
		return rel[:idx]
	}
	return "."
}

func seriesDescription(path string) string {
	dataset, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return ""
	}
	element, err := dataset.FindElementByTag(tag.SeriesDescription)
	if err != nil {
		return ""
	}
	values := dicom.MustGetStrings(element.Value)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
