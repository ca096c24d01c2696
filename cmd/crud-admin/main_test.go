package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crud-admin.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMigrateCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "admin.db")
	path := writeConfig(t, "[database]\ndriver = \"sqlite3\"\ndsn = \""+filepath.ToSlash(dsn)+"\"\n")

	out, err := execute(t, "--config", path, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "migration complete") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(dsn); err != nil {
		t.Errorf("database file should exist: %v", err)
	}

	// Running twice is harmless.
	if _, err := execute(t, "--config", path, "migrate"); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}
}

func TestConfigCommandPrintsEffectiveValues(t *testing.T) {
	path := writeConfig(t, "[server]\naddr = \":9191\"\n")

	out, err := execute(t, "--config", path, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, ":9191") {
		t.Errorf("expected overridden addr in:\n%s", out)
	}
}

func TestVerboseOverridesLogLevel(t *testing.T) {
	out, err := execute(t, "--verbose", "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "debug") {
		t.Errorf("expected debug level in:\n%s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, "[database]\ndriver = \"oracle\"\n")

	if _, err := execute(t, "--config", path, "migrate"); err == nil {
		t.Fatal("expected invalid driver to be rejected")
	}

	path = writeConfig(t, "[server]\nport = 8080\n")
	if _, err := execute(t, "--config", path, "config"); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}
