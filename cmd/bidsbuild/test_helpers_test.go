package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes a config file pointing at a temp project dir and
// returns both paths.
func writeTestConfig(t *testing.T) (configPath, projectDir string) {
	t.Helper()
	base := t.TempDir()
	projectDir = filepath.Join(base, "project")
	if err := os.MkdirAll(filepath.Join(projectDir, "derivatives"), 0o755); err != nil {
		t.Fatalf("mkdir derivatives: %v", err)
	}
	configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nproject_dir = %q\nlog_dir = %q\n\n[convert]\ndcm2niix_bin = \"dcm2niix\"\norg_dcms_bin = \"org_dcms.sh\"\nrefacer_bin = \"@afni_refacer_run\"\npydeface_bin = \"pydeface\"\ndefacer = \"afni\"\n",
		projectDir, filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, projectDir
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
