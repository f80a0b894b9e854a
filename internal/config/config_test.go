package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TMS_DB_PATH", "/tmp/custom/tms.db")
	t.Setenv("TMS_OUTPUT", "json")
	t.Setenv("TMS_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "/tmp/custom/tms.db" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.Output != "json" {
		t.Errorf("expected output json, got %q", cfg.Output)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TMS_DB_PATH", "")
	t.Setenv("TMS_OUTPUT", "")
	t.Setenv("TMS_LOG_LEVEL", "")
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Output != "table" {
		t.Errorf("expected default output table, got %q", cfg.Output)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.DBPath == "" {
		t.Error("expected a default db path")
	}
}

func TestGetEnvOrFile(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "db_path")
	writeFile(t, secretPath, "/data/from-file.db")

	t.Setenv("TMS_DB_PATH", "")
	t.Setenv("TMS_DB_PATH_FILE", secretPath)

	if got := getEnvOrFile("TMS_DB_PATH", "TMS_DB_PATH_FILE"); got != "/data/from-file.db" {
		t.Errorf("expected file value, got %q", got)
	}

	t.Setenv("TMS_DB_PATH", "/data/from-env.db")
	if got := getEnvOrFile("TMS_DB_PATH", "TMS_DB_PATH_FILE"); got != "/data/from-env.db" {
		t.Errorf("env should win over file, got %q", got)
	}
}

func TestGetActorIDPrecedence(t *testing.T) {
	cfg := &Config{DefaultActor: "config-actor"}

	t.Setenv("TMS_ACTOR_ID", "")
	t.Setenv("TMS_ACTOR", "")
	if got := cfg.GetActorID(); got != "config-actor" {
		t.Errorf("expected config default, got %q", got)
	}

	t.Setenv("TMS_ACTOR", "env-actor")
	if got := cfg.GetActorID(); got != "env-actor" {
		t.Errorf("expected TMS_ACTOR to win over config, got %q", got)
	}

	t.Setenv("TMS_ACTOR_ID", "A-00009")
	if got := cfg.GetActorID(); got != "A-00009" {
		t.Errorf("expected TMS_ACTOR_ID to win, got %q", got)
	}
}

func TestGetActorIDEmptyMeansUnconfigured(t *testing.T) {
	cfg := &Config{}
	t.Setenv("TMS_ACTOR_ID", "")
	t.Setenv("TMS_ACTOR", "")
	if got := cfg.GetActorID(); got != "" {
		t.Errorf("expected empty actor, got %q", got)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
