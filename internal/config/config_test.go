package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.CheckIntervalSeconds != DefaultCheckInterval {
		t.Fatalf("expected default interval %d, got %d", DefaultCheckInterval, cfg.CheckIntervalSeconds)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TargetDisplay != "" {
		t.Fatalf("expected empty target_display, got %q", cfg.TargetDisplay)
	}
	if cfg.NoAutoRestart {
		t.Fatalf("expected no_auto_restart to default to false")
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CheckIntervalSeconds != DefaultCheckInterval {
		t.Fatalf("expected default interval, got %d", cfg.CheckIntervalSeconds)
	}
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"target_display: \"Virtual 16:9\"",
		"no_auto_restart: true",
		"check_interval_seconds: 30",
		"sunshine_conf: /tmp/sunshine.conf",
		"service_names: [sunshine-beta]",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TargetDisplay != "Virtual 16:9" {
		t.Fatalf("target_display = %q", cfg.TargetDisplay)
	}
	if !cfg.NoAutoRestart {
		t.Fatalf("expected no_auto_restart true")
	}
	if cfg.CheckIntervalSeconds != 30 {
		t.Fatalf("check_interval_seconds = %d", cfg.CheckIntervalSeconds)
	}
	confPath, err := cfg.ResolveSunshineConf()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if confPath != "/tmp/sunshine.conf" {
		t.Fatalf("sunshine_conf = %q", confPath)
	}
	if len(cfg.ServiceNames) != 1 || cfg.ServiceNames[0] != "sunshine-beta" {
		t.Fatalf("service_names = %v", cfg.ServiceNames)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("target_dsiplay: typo\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoadFromPath_BadIntervalRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("check_interval_seconds: -5\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected negative interval to be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.TargetDisplay = "Virtual 16:9"
	cfg.NoAutoRestart = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TargetDisplay != cfg.TargetDisplay {
		t.Fatalf("round trip target_display = %q", loaded.TargetDisplay)
	}
	if !loaded.NoAutoRestart {
		t.Fatalf("round trip lost no_auto_restart")
	}
}

func TestResolveSunshineConf_Default(t *testing.T) {
	cfg := DefaultConfig()
	path, err := cfg.ResolveSunshineConf()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "sunshine", "sunshine.conf")) {
		t.Fatalf("unexpected default conf path %q", path)
	}
}
