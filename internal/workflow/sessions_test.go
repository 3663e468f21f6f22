package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseSessionDir(t *testing.T) {
	tests := []struct {
		name     string
		wantDay  string
		wantTask string
		wantErr  bool
	}{
		{"day2_movies", "day2", "movies", false},
		{"day3_scenarios", "day3", "scenarios", false},
		{"day2movies", "", "", true},
		{"session2_movies", "", "", true},
		{"day2_faces", "", "", true},
		{"day2_movies_extra", "", "", true},
	}
	for _, tc := range tests {
		day, task, err := ParseSessionDir(tc.name)
		if tc.wantErr {
			if !errors.Is(err, ErrBadSessionDir) {
				t.Errorf("ParseSessionDir(%q) err = %v, want ErrBadSessionDir", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSessionDir(%q): %v", tc.name, err)
			continue
		}
		if day != tc.wantDay || task != tc.wantTask {
			t.Errorf("ParseSessionDir(%q) = %q, %q", tc.name, day, task)
		}
	}
}

func TestDiscoverSubjects(t *testing.T) {
	sourcedata := t.TempDir()
	for _, dir := range []string{"ER0016", "ER0009", "notes"} {
		if err := os.MkdirAll(filepath.Join(sourcedata, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// Stray files matching the glob are ignored.
	if err := os.WriteFile(filepath.Join(sourcedata, "ER_index.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	subjects, err := DiscoverSubjects(sourcedata)
	if err != nil {
		t.Fatalf("DiscoverSubjects: %v", err)
	}
	if !reflect.DeepEqual(subjects, []string{"ER0009", "ER0016"}) {
		t.Errorf("subjects = %v", subjects)
	}
}

func TestSessionsOf(t *testing.T) {
	sourcedata := t.TempDir()
	for _, dir := range []string{"day2_movies", "day3_scenarios", "day2_bad"} {
		if err := os.MkdirAll(filepath.Join(sourcedata, "ER0009", dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	sessions, skipped, err := sessionsOf(sourcedata, "ER0009")
	if err != nil {
		t.Fatalf("sessionsOf: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v", sessions)
	}
	first := sessions[0]
	if first.Subject != "sub-ER0009" || first.Name != "ses-day2" || first.Task != "task-movies" {
		t.Errorf("first session = %+v", first)
	}
	if sessions[1].Task != "task-scenarios" {
		t.Errorf("second session = %+v", sessions[1])
	}
	if !reflect.DeepEqual(skipped, []string{"day2_bad"}) {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestFilenameValidation(t *testing.T) {
	sess := Session{
		SubID: "ER0009", Subject: "sub-ER0009",
		Day: "day2", Name: "ses-day2", Task: "task-movies",
	}

	run, err := parseTaskFileName("emorep_scannermovieData_ER0009_sesday2_run1_04012022.csv", sess)
	if err != nil {
		t.Fatalf("valid task file: %v", err)
	}
	if run != "01" {
		t.Errorf("run = %q, want 01", run)
	}

	badTask := []string{
		"emorep_scannertextData_ER0009_sesday2_run1_04012022.csv", // wrong task token
		"emorep_scannermovieData_ER0016_sesday2_run1_04012022.csv", // wrong subject
		"emorep_scannermovieData_ER0009_sesday3_run1_04012022.csv", // wrong day
		"emorep_scannermovieData_ER0009_sesday2_04012022.csv",      // missing field
		"emorep_scannermovieData_ER0009_sesday2_block1_04012022.csv",
	}
	for _, name := range badTask {
		if _, err := parseTaskFileName(name, sess); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}

	date, err := parseRestFileName("emorep_RestRatingData_ER0009_sesday2_04012022.csv", sess)
	if err != nil {
		t.Fatalf("valid rating file: %v", err)
	}
	if date != "2022-04-01" {
		t.Errorf("date = %q, want 2022-04-01", date)
	}
	if _, err := parseRestFileName("emorep_RestRatingData_ER0009_sesday2_13450000.csv", sess); err == nil {
		t.Error("expected error for impossible date")
	}

	if err := validatePhysioName("ER0009_physio_day2_run1.acq", sess); err != nil {
		t.Errorf("valid recording: %v", err)
	}
	if err := validatePhysioName("ER0016_physio_day2_run1.acq", sess); err == nil {
		t.Error("expected error for wrong subject")
	}
	if err := validatePhysioName("ER0009_physio_day3_run1.acq", sess); err == nil {
		t.Error("expected error for wrong day")
	}
}
