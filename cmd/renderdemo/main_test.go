package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRendersAllTemplates(t *testing.T) {
	out := t.TempDir()
	var stdout bytes.Buffer
	if err := run(&stdout, "all", "", out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"cv-modern.html", "cv-minimal.html", "cv-creative.html", "cv.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if strings.Count(stdout.String(), "OK: wrote") != 3 {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestRunValidatesInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cv.json")
	if err := os.WriteFile(in, []byte(`{"personal":{"firstName":"Ada","lastName":"Lovelace"},"skills":[{"name":"Math","level":9}]}`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := run(&bytes.Buffer{}, "minimal", in, dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	page, err := os.ReadFile(filepath.Join(dir, "cv-minimal.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(page, []byte("Ada Lovelace")) {
		t.Fatalf("expected rendered name")
	}

	if err := os.WriteFile(in, []byte(`{"skills":"many"}`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := run(&bytes.Buffer{}, "minimal", in, dir); err == nil {
		t.Fatalf("expected schema error")
	}
	if err := run(&bytes.Buffer{}, "baroque", "", dir); err == nil {
		t.Fatalf("expected unknown template error")
	}
}

func TestRootCmdReadsEnv(t *testing.T) {
	out := t.TempDir()
	t.Setenv("CVCTL_TEMPLATE", "creative")
	t.Setenv("CVCTL_OUT", out)

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "cv-creative.html")); err != nil {
		t.Fatalf("expected creative output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "cv-modern.html")); err == nil {
		t.Fatalf("expected only the selected template")
	}
}
