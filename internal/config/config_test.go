package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAPIFromEnvPort(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEARFLIP_REQUEST_TIMEOUT", "bogus")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr %q", cfg.Addr)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.LeaderboardLimit != 50 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadWorkerRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadWorkerFromEnv(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/gearflip")
	t.Setenv("GEARFLIP_WORKER_RUN_ONCE", "true")
	cfg, err := LoadWorkerFromEnv()
	if err != nil || !cfg.RunOnce || cfg.ChallengeCron == "" {
		t.Fatalf("cfg=%+v err=%v", cfg, err)
	}
}

func TestLoadCLIFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEARFLIP_HOME", dir)
	t.Setenv("GEARFLIP_API_BASE_URL", "")
	t.Setenv("GEARFLIP_SAVE_PATH", "")
	t.Setenv("GEARFLIP_TELEMETRY", "")
	t.Setenv("GEARFLIP_LOG_LEVEL", "")
	t.Setenv("GEARFLIP_RUN_LENGTH", "200")
	path := filepath.Join(dir, "config.yaml")
	body := "api_base_url: https://scores.example.com/\nrun_length: 30\ntelemetry: LOG\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadCLI(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://scores.example.com" {
		t.Fatalf("base url %q", cfg.APIBaseURL)
	}
	if cfg.RunLength != 90 {
		t.Fatalf("run length %d want env override clamped to 90", cfg.RunLength)
	}
	if cfg.Telemetry != "log" || cfg.LogLevel != "warn" {
		t.Fatalf("telemetry=%q level=%q", cfg.Telemetry, cfg.LogLevel)
	}
	if cfg.SavePath != filepath.Join(dir, "saves.db") {
		t.Fatalf("save path %q", cfg.SavePath)
	}
}

func TestLoadCLIMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEARFLIP_HOME", dir)
	t.Setenv("GEARFLIP_RUN_LENGTH", "")
	t.Setenv("GEARFLIP_API_BASE_URL", "")
	t.Setenv("GEARFLIP_TELEMETRY", "")
	cfg, err := LoadCLI(filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RunLength != 21 || cfg.Telemetry != "sqlite" || cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("defaults %+v", cfg)
	}
}

func TestLoadCLIBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("run_length: [oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCLI(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
