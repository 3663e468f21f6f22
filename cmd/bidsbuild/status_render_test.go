package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("dcm2niix", statusOK, "dcm2niix", false)
	requireContains(t, plain, "dcm2niix:")
	requireContains(t, plain, "[OK] dcm2niix")
	if strings.Contains(plain, ansiReset) {
		t.Fatalf("expected no color codes, got %q", plain)
	}

	colored := renderStatusLine("pydeface", statusWarn, "command not configured", true)
	if !strings.HasPrefix(colored, ansiYellow) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected yellow wrapping, got %q", colored)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Failures", false)
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[0] != "== Failures ==" {
		t.Fatalf("unexpected header line %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length %d does not match header %d", len(lines[1]), len(lines[0]))
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Steps"},
		[][]string{{"Completed", "4"}, {"Failed", "1"}},
		[]columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "Completed")
	requireContains(t, out, "Failed")
	requireContains(t, out, "Status")
}
