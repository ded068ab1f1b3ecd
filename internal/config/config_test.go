package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
}

func TestLoadDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	data := "CLOTHIK_TEST_ROWS=9\nCLOTHIK_TEST_DT=0.005\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CLOTHIK_TEST_ROWS", "4")
	t.Setenv("CLOTHIK_TEST_DT", "")
	os.Unsetenv("CLOTHIK_TEST_DT")

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows, err := Int("CLOTHIK_TEST_ROWS", 1)
	if err != nil || rows != 4 {
		t.Fatalf("rows = %d (%v), want 4 from the environment", rows, err)
	}
	dt, err := Float("CLOTHIK_TEST_DT", 1)
	if err != nil || dt != 0.005 {
		t.Fatalf("dt = %g (%v), want 0.005 from the file", dt, err)
	}
}

func TestParseErrorsKeepDefault(t *testing.T) {
	t.Setenv("CLOTHIK_TEST_BAD", "seven")

	if n, err := Int("CLOTHIK_TEST_BAD", 7); err == nil || n != 7 {
		t.Fatalf("Int = %d, %v; want default and an error", n, err)
	}
	if f, err := Float("CLOTHIK_TEST_BAD", 0.5); err == nil || f != 0.5 {
		t.Fatalf("Float = %g, %v; want default and an error", f, err)
	}
	if b, err := Bool("CLOTHIK_TEST_BAD", true); err == nil || !b {
		t.Fatalf("Bool = %v, %v; want default and an error", b, err)
	}
	if s := String("CLOTHIK_TEST_UNSET", "out"); s != "out" {
		t.Fatalf("String = %q, want default", s)
	}
}
