package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeDepsConfig(t *testing.T, dcm2niix string) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nproject_dir = %q\n\n[convert]\ndcm2niix_bin = %q\norg_dcms_bin = \"sh\"\nrefacer_bin = \"sh\"\npydeface_bin = \"\"\ndefacer = \"afni\"\n",
		base, dcm2niix)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func TestDepsCommandReportsAvailability(t *testing.T) {
	out, _, err := runCLI(t, writeDepsConfig(t, "sh"), "deps")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "dcm2niix")
	requireContains(t, out, "[OK]")
	// pydeface is unconfigured but optional under the afni defacer
	requireContains(t, out, "[WARN]")
}

func TestDepsCommandFailsOnMissingRequiredBinary(t *testing.T) {
	out, _, err := runCLI(t, writeDepsConfig(t, "definitely-not-a-real-binary"), "deps")
	if err == nil {
		t.Fatal("expected error for missing required binary")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, err.Error(), "required tools missing")
}
