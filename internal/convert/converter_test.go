package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bidsbuild/internal/config"
	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/services"
)

// fakeExecutor records invocations and lets each test script the tool's
// filesystem side effects.
type fakeExecutor struct {
	calls  [][]string
	effect func(binary string, args []string) error
	stderr string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (string, string, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.effect != nil {
		if err := f.effect(binary, args); err != nil {
			return "", "", err
		}
	}
	return "", f.stderr, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ProjectDir = t.TempDir()
	return &cfg
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOrganizeDicomsSkipsWhenOrganized(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	dicomDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dicomDir, "EmoRep_anat"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := conv.OrganizeDicoms(context.Background(), dicomDir); err != nil {
		t.Fatalf("OrganizeDicoms: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("organized session should not invoke the script, got %v", exec.calls)
	}
}

func TestOrganizeDicomsRunsScript(t *testing.T) {
	cfg := testConfig(t)
	dicomDir := t.TempDir()
	exec := &fakeExecutor{
		effect: func(_ string, _ []string) error {
			return os.MkdirAll(filepath.Join(dicomDir, "EmoRep_anat"), 0o755)
		},
	}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	if err := conv.OrganizeDicoms(context.Background(), dicomDir); err != nil {
		t.Fatalf("OrganizeDicoms: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(exec.calls))
	}
	call := exec.calls[0]
	if call[0] != cfg.Convert.OrgDcmsBin || call[1] != "-d" || call[2] != dicomDir {
		t.Errorf("call = %v", call)
	}
}

func TestOrganizeDicomsReportsMissingOutput(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{stderr: "protocol not recognized"}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	err := conv.OrganizeDicoms(context.Background(), t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestConvertDicoms(t *testing.T) {
	cfg := testConfig(t)
	dicomDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "ses-day2")
	exec := &fakeExecutor{
		effect: func(_ string, _ []string) error {
			for _, name := range []string{
				"DICOM_EmoRep_anat_20220401.nii.gz",
				"DICOM_EmoRep_anat_20220401.json",
				"DICOM_localizer_20220401.nii.gz",
				"DICOM_localizer_20220401.json",
			} {
				if err := os.WriteFile(filepath.Join(outDir, name), []byte("x"), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	niftis, err := conv.ConvertDicoms(context.Background(), dicomDir, outDir)
	if err != nil {
		t.Fatalf("ConvertDicoms: %v", err)
	}
	if len(niftis) != 1 {
		t.Fatalf("niftis = %v", niftis)
	}
	if fileutil.Exists(filepath.Join(outDir, "DICOM_localizer_20220401.nii.gz")) {
		t.Error("localizer volume should be removed")
	}
	if fileutil.Exists(filepath.Join(outDir, "DICOM_localizer_20220401.json")) {
		t.Error("localizer sidecar should be removed")
	}

	call := exec.calls[0]
	want := []string{cfg.Convert.Dcm2niixBin, "-a", "y", "-ba", "y", "-z", "y", "-o", outDir, dicomDir}
	if len(call) != len(want) {
		t.Fatalf("call = %v", call)
	}
	for i := range want {
		if call[i] != want[i] {
			t.Fatalf("call = %v, want %v", call, want)
		}
	}
}

func TestConvertDicomsSkipsExisting(t *testing.T) {
	cfg := testConfig(t)
	outDir := t.TempDir()
	touch(t, filepath.Join(outDir, "DICOM_EmoRep_anat_20220401.nii.gz"))
	exec := &fakeExecutor{}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	niftis, err := conv.ConvertDicoms(context.Background(), t.TempDir(), outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(niftis) != 1 || len(exec.calls) != 0 {
		t.Fatalf("existing niftis should skip dcm2niix: %v %v", niftis, exec.calls)
	}
}

func TestConvertDicomsCountMismatch(t *testing.T) {
	cfg := testConfig(t)
	outDir := filepath.Join(t.TempDir(), "out")
	exec := &fakeExecutor{
		effect: func(_ string, _ []string) error {
			return os.WriteFile(filepath.Join(outDir, "DICOM_EmoRep_anat.nii.gz"), []byte("x"), 0o644)
		},
	}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	_, err := conv.ConvertDicoms(context.Background(), t.TempDir(), outDir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error for sidecar mismatch, got %v", err)
	}
}

func TestDefaceAfni(t *testing.T) {
	cfg := testConfig(t)
	derivDir := t.TempDir()
	t1 := filepath.Join(t.TempDir(), "sub-ER0009_ses-day2_T1w.nii.gz")
	touch(t, t1)

	exec := &fakeExecutor{
		effect: func(_ string, args []string) error {
			// -input t1 -mode_deface -prefix <prefix>
			prefix := args[len(args)-1]
			return os.WriteFile(prefix+".nii.gz", []byte("defaced"), 0o644)
		},
	}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	defaced, err := conv.Deface(context.Background(), []string{t1}, derivDir, "sub-ER0009", "ses-day2")
	if err != nil {
		t.Fatalf("Deface: %v", err)
	}
	want := filepath.Join(derivDir, "deface", "sub-ER0009", "ses-day2", "sub-ER0009_ses-day2_T1w_defaced.nii.gz")
	if len(defaced) != 1 || defaced[0] != want {
		t.Fatalf("defaced = %v, want %s", defaced, want)
	}
	if !fileutil.Exists(want) {
		t.Fatal("defaced volume missing")
	}
	if fileutil.Exists(filepath.Join(derivDir, "reface", "sub-ER0009", "ses-day2")) {
		t.Error("refacer scratch directory should be removed")
	}
}

func TestDefaceSkipsExisting(t *testing.T) {
	cfg := testConfig(t)
	derivDir := t.TempDir()
	t1 := filepath.Join(t.TempDir(), "sub-ER0009_ses-day2_T1w.nii.gz")
	touch(t, t1)
	existing := filepath.Join(derivDir, "deface", "sub-ER0009", "ses-day2", "sub-ER0009_ses-day2_T1w_defaced.nii.gz")
	touch(t, existing)

	exec := &fakeExecutor{}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	defaced, err := conv.Deface(context.Background(), []string{t1}, derivDir, "sub-ER0009", "ses-day2")
	if err != nil {
		t.Fatal(err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("existing output should skip defacing, got %v", exec.calls)
	}
	if len(defaced) != 1 || defaced[0] != existing {
		t.Fatalf("defaced = %v", defaced)
	}
}

func TestDefacePydeface(t *testing.T) {
	cfg := testConfig(t)
	cfg.Convert.Defacer = config.DefacerPydeface
	derivDir := t.TempDir()
	t1 := filepath.Join(t.TempDir(), "sub-ER0009_ses-day2_T1w.nii.gz")
	touch(t, t1)

	exec := &fakeExecutor{
		effect: func(_ string, args []string) error {
			return os.WriteFile(args[len(args)-1], []byte("defaced"), 0o644)
		},
	}
	conv := New(cfg, logging.NewNop(), WithExecutor(exec))

	defaced, err := conv.Deface(context.Background(), []string{t1}, derivDir, "sub-ER0009", "ses-day2")
	if err != nil {
		t.Fatal(err)
	}
	call := exec.calls[0]
	if call[0] != cfg.Convert.PydefaceBin || call[1] != t1 || call[2] != "--outfile" {
		t.Errorf("call = %v", call)
	}
	if len(defaced) != 1 {
		t.Fatalf("defaced = %v", defaced)
	}
}

func TestRequirements(t *testing.T) {
	cfg := testConfig(t)
	reqs := Requirements(cfg)
	if len(reqs) != 4 {
		t.Fatalf("got %d requirements", len(reqs))
	}
	byName := make(map[string]bool)
	for _, req := range reqs {
		byName[req.Name] = req.Optional
	}
	if byName["afni_refacer"] {
		t.Error("afni refacer should be required under the default defacer")
	}
	if !byName["pydeface"] {
		t.Error("pydeface should be optional under the default defacer")
	}

	cfg.Convert.Defacer = config.DefacerPydeface
	for _, req := range Requirements(cfg) {
		if req.Name == "pydeface" && req.Optional {
			t.Error("pydeface should be required when selected")
		}
	}
}
