package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got %v", err)
	}
	if cfg != Default() {
		t.Errorf("Expected %+v, got %+v", Default(), cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "tab_stop: 8\nquit_times: 1\nsyntax_highlight: false\nlog_file: /tmp/kiro.log\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.TabStop != 8 {
		t.Errorf("Expected tab stop 8, got %d", cfg.TabStop)
	}
	if cfg.QuitTimes != 1 {
		t.Errorf("Expected quit times 1, got %d", cfg.QuitTimes)
	}
	if cfg.SyntaxHighlight {
		t.Errorf("Expected syntax highlighting off")
	}
	if cfg.LogFile != "/tmp/kiro.log" {
		t.Errorf("Expected log file %q, got %q", "/tmp/kiro.log", cfg.LogFile)
	}
}

func TestLoadPartialFileKeepsRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("tab_stop: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.TabStop != 2 {
		t.Errorf("Expected tab stop 2, got %d", cfg.TabStop)
	}
	if cfg.QuitTimes != Default().QuitTimes {
		t.Errorf("Expected default quit times, got %d", cfg.QuitTimes)
	}
	if !cfg.SyntaxHighlight {
		t.Errorf("Expected syntax highlighting on by default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("tab_stop: -3\nquit_times: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.TabStop != Default().TabStop {
		t.Errorf("Expected invalid tab stop replaced with default, got %d", cfg.TabStop)
	}
	if cfg.QuitTimes != Default().QuitTimes {
		t.Errorf("Expected invalid quit times replaced with default, got %d", cfg.QuitTimes)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("tab_stop: [oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Errorf("Expected error for malformed YAML")
	}
}
