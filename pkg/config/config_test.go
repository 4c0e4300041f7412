package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a directory with no config file so defaults apply.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
	if cfg.LLM.SQLRowCap != 1000 {
		t.Errorf("sql row cap = %d", cfg.LLM.SQLRowCap)
	}
	if cfg.Feedback.Backend != "sqlite" {
		t.Errorf("feedback backend = %q", cfg.Feedback.Backend)
	}
	if cfg.Limits.RetryAttempts != 3 {
		t.Errorf("retry attempts = %d", cfg.Limits.RetryAttempts)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("RESTO_AGENT_SERVER_PORT", "9090")
	t.Setenv("RESTO_AGENT_FEEDBACK_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, env override ignored", cfg.Server.Port)
	}
	if cfg.Feedback.Backend != "memory" {
		t.Errorf("feedback backend = %q", cfg.Feedback.Backend)
	}
}
