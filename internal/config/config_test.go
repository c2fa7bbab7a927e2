package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "archive.db" {
		t.Errorf("database = %q, want archive.db", cfg.Database)
	}
	if !cfg.Archive.PreserveSourceDate {
		t.Error("preserve_source_date default should be true")
	}
	if len(cfg.Reconcile.Statuses) != 3 {
		t.Errorf("statuses = %v, want the three defaults", cfg.Reconcile.Statuses)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %q/%q, want info/text", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ea.yaml")
	content := `
database: /data/ea/archive.db
archive:
  preserve_source_date: false
reconcile:
  statuses: ["not checked", "checked"]
log:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "/data/ea/archive.db" {
		t.Errorf("database = %q", cfg.Database)
	}
	if cfg.Archive.PreserveSourceDate {
		t.Error("preserve_source_date not overridden")
	}
	if len(cfg.Reconcile.Statuses) != 2 || cfg.Reconcile.Statuses[0] != "not checked" {
		t.Errorf("statuses = %v", cfg.Reconcile.Statuses)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EA_DATABASE", "/tmp/override.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "/tmp/override.db" {
		t.Errorf("database = %q, want the EA_DATABASE override", cfg.Database)
	}
}

func TestLoad_DotenvLayer(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, DotenvFile),
		[]byte("EA_DIRS_EXPORT=/srv/exports\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Dirs.Export != "/srv/exports" {
		t.Errorf("dirs.export = %q, want the settings.env value", cfg.Dirs.Export)
	}
}

func TestValidate_BadFormat(t *testing.T) {
	cfg := &Config{Database: "x.db"}
	cfg.Reconcile.Statuses = []string{"Done"}
	cfg.Log.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted log.format xml")
	}
}
