package bids

import (
	"encoding/json"
	"os"
	"path/filepath"

	"bidsbuild/internal/fileutil"
)

// datasetDescription is the dataset_description.json payload. Field order
// follows the BIDS starter layout.
type datasetDescription struct {
	Name        string      `json:"Name"`
	BIDSVersion string      `json:"BIDSVersion"`
	DatasetType string      `json:"DatasetType"`
	Funding     []string    `json:"Funding"`
	GeneratedBy []generator `json:"GeneratedBy"`
}

type generator struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
}

// WriteDatasetFiles seeds rawDir with the dataset-level files BIDS
// validation expects: dataset_description.json, README, and a .bidsignore
// excluding the physio containers the validator does not understand.
// Existing files are left alone so manual curation survives reruns.
func WriteDatasetFiles(rawDir string) error {
	if err := fileutil.EnsureDir(rawDir); err != nil {
		return err
	}

	descPath := filepath.Join(rawDir, "dataset_description.json")
	if !fileutil.Exists(descPath) {
		desc := datasetDescription{
			Name:        "EmoRep",
			BIDSVersion: "1.7.0",
			DatasetType: "raw",
			Funding:     []string{"1R01MH113238"},
			GeneratedBy: []generator{{Name: "dcm2niix", Version: "v1.0.20211006"}},
		}
		data, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(descPath, append(data, '\n'), 0o644); err != nil {
			return err
		}
	}

	readmePath := filepath.Join(rawDir, "README")
	if !fileutil.Exists(readmePath) {
		if err := os.WriteFile(readmePath, []byte("TODO: update\n"), 0o644); err != nil {
			return err
		}
	}

	ignorePath := filepath.Join(rawDir, ".bidsignore")
	if !fileutil.Exists(ignorePath) {
		if err := os.WriteFile(ignorePath, []byte("**/*.acq\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}
