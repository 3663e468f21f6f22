package bids

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bidsbuild/internal/patches"
)

func writeJSON(t *testing.T, path string, fields map[string]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	return fields
}

func TestUpdateFuncSidecars(t *testing.T) {
	dir := t.TempDir()
	movies := filepath.Join(dir, "func", "sub-ER0009_ses-day2_task-movies_run-01_bold.json")
	rest := filepath.Join(dir, "func", "sub-ER0009_ses-day2_task-rest_run-01_bold.json")
	writeJSON(t, movies, map[string]any{"RepetitionTime": 1.3})
	writeJSON(t, rest, map[string]any{"RepetitionTime": 1.3, "TaskName": "existing"})

	if err := UpdateFuncSidecars(dir); err != nil {
		t.Fatalf("UpdateFuncSidecars: %v", err)
	}

	got := readJSON(t, movies)
	if got["TaskName"] != "movies" {
		t.Errorf("TaskName = %v, want movies", got["TaskName"])
	}
	if got["RepetitionTime"] != 1.3 {
		t.Errorf("existing field clobbered: %v", got["RepetitionTime"])
	}
	if readJSON(t, rest)["TaskName"] != "existing" {
		t.Error("pre-set TaskName should survive reruns")
	}
}

func TestUpdateFmapSidecarsSplit(t *testing.T) {
	subjectDir := t.TempDir()
	sessionDir := filepath.Join(subjectDir, "ses-day2")

	fmap1 := filepath.Join(sessionDir, "fmap", "sub-ER0009_ses-day2_acq-rpe_dir-PA_run-01_epi.json")
	fmap2 := filepath.Join(sessionDir, "fmap", "sub-ER0009_ses-day2_acq-rpe_dir-PA_run-02_epi.json")
	writeJSON(t, fmap1, map[string]any{"PhaseEncodingDirection": "j"})
	writeJSON(t, fmap2, map[string]any{"PhaseEncodingDirection": "j"})

	boldNames := []string{
		"sub-ER0009_ses-day2_task-movies_run-01_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-02_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-03_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-04_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-05_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-06_bold.nii.gz",
		"sub-ER0009_ses-day2_task-movies_run-07_bold.nii.gz",
		"sub-ER0009_ses-day2_task-rest_run-01_bold.nii.gz",
	}
	if err := os.MkdirAll(filepath.Join(sessionDir, "func"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range boldNames {
		if err := os.WriteFile(filepath.Join(sessionDir, "func", name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := UpdateFmapSidecars(sessionDir, "sub-ER0009", "ses-day2", patches.Defaults().FmapOverride); err != nil {
		t.Fatalf("UpdateFmapSidecars: %v", err)
	}

	first := readJSON(t, fmap1)["IntendedFor"].([]any)
	second := readJSON(t, fmap2)["IntendedFor"].([]any)
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("split %d/%d, want 4/4", len(first), len(second))
	}
	if first[0] != "ses-day2/func/sub-ER0009_ses-day2_task-movies_run-01_bold.nii.gz" {
		t.Errorf("first list starts with %v", first[0])
	}
	// The rest run sorts between task runs but must land last overall.
	if second[3] != "ses-day2/func/sub-ER0009_ses-day2_task-rest_run-01_bold.nii.gz" {
		t.Errorf("rest run not last: %v", second[3])
	}
}

func TestUpdateFmapSidecarsSingleFieldmap(t *testing.T) {
	subjectDir := t.TempDir()
	sessionDir := filepath.Join(subjectDir, "ses-day3")

	epi := filepath.Join(sessionDir, "fmap", "sub-ER0009_ses-day3_acq-rpe_dir-PA_epi.json")
	writeJSON(t, epi, map[string]any{})
	if err := os.MkdirAll(filepath.Join(sessionDir, "func"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"sub-ER0009_ses-day3_task-scenarios_run-01_bold.nii.gz",
		"sub-ER0009_ses-day3_task-scenarios_run-02_bold.nii.gz",
	} {
		if err := os.WriteFile(filepath.Join(sessionDir, "func", name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := UpdateFmapSidecars(sessionDir, "sub-ER0009", "ses-day3", patches.OverrideTable{}); err != nil {
		t.Fatalf("UpdateFmapSidecars: %v", err)
	}
	got := readJSON(t, epi)["IntendedFor"].([]any)
	if len(got) != 2 {
		t.Fatalf("single fieldmap should cover all runs, got %d", len(got))
	}
}

func TestUpdateFmapSidecarsNoFieldmaps(t *testing.T) {
	sessionDir := filepath.Join(t.TempDir(), "ses-day2")
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := UpdateFmapSidecars(sessionDir, "sub-ER0009", "ses-day2", patches.OverrideTable{}); err == nil {
		t.Fatal("expected error when no fieldmap sidecars exist")
	}
}
