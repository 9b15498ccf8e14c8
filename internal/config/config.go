package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gearflip/internal/game"
)

type APIConfig struct {
	Addr             string
	DatabaseURL      string
	RequestTimeout   time.Duration
	LeaderboardLimit int
}

type WorkerConfig struct {
	DatabaseURL   string
	ChallengeCron string
	RunOnce       bool
}

// CLIConfig is read from ~/.gearflip/config.yaml, then GEARFLIP_* overrides.
type CLIConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	SavePath   string `yaml:"save_path"`
	RunLength  int    `yaml:"run_length"`
	Telemetry  string `yaml:"telemetry"`
	LogLevel   string `yaml:"log_level"`
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("GEARFLIP_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RequestTimeout:   envDurationDefault("GEARFLIP_REQUEST_TIMEOUT", 10*time.Second),
		LeaderboardLimit: envIntDefault("GEARFLIP_LEADERBOARD_LIMIT", 50),
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = 50
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ChallengeCron: envDefault("GEARFLIP_CHALLENGE_CRON", "0 5 0 * * *"),
		RunOnce:       envBoolDefault("GEARFLIP_WORKER_RUN_ONCE", false),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func DefaultCLIPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HomeDir is ~/.gearflip, created on first use.
func HomeDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("GEARFLIP_HOME")); v != "" {
		if err := os.MkdirAll(v, 0o700); err != nil {
			return "", err
		}
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".gearflip")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// LoadCLI reads the YAML file at path (a missing file is fine), applies env
// overrides, then fills defaults.
func LoadCLI(path string) (CLIConfig, error) {
	var cfg CLIConfig
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("GEARFLIP_API_BASE_URL")); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GEARFLIP_SAVE_PATH")); v != "" {
		cfg.SavePath = v
	}
	cfg.RunLength = envIntDefault("GEARFLIP_RUN_LENGTH", cfg.RunLength)
	if v := strings.TrimSpace(os.Getenv("GEARFLIP_TELEMETRY")); v != "" {
		cfg.Telemetry = v
	}
	if v := strings.TrimSpace(os.Getenv("GEARFLIP_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:8080"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.SavePath == "" {
		dir, err := HomeDir()
		if err != nil {
			return cfg, err
		}
		cfg.SavePath = filepath.Join(dir, "saves.db")
	}
	cfg.RunLength = game.ClampRunLength(cfg.RunLength)
	switch strings.ToLower(cfg.Telemetry) {
	case "off", "log", "sqlite":
		cfg.Telemetry = strings.ToLower(cfg.Telemetry)
	default:
		cfg.Telemetry = "sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
