package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath       string   `yaml:"db_path"`
	DefaultActor string   `yaml:"default_actor"`
	LogLevel     string   `yaml:"log_level"`
	Output       string   `yaml:"output"`
	WebhookURLs  []string `yaml:"webhook_urls"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables (TMS_*)
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/tms/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		Output:   "table",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional
	_ = loadYAMLConfig(cfg)

	// Override with environment variables
	if dbPath := getEnvOrFile("TMS_DB_PATH", "TMS_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel := os.Getenv("TMS_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if output := os.Getenv("TMS_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if defaultActor := os.Getenv("TMS_ACTOR"); defaultActor != "" {
		cfg.DefaultActor = defaultActor
	}
	if urls := os.Getenv("TMS_WEBHOOK_URLS"); urls != "" {
		cfg.WebhookURLs = nil
		for _, u := range strings.Split(urls, ",") {
			if trimmed := strings.TrimSpace(u); trimmed != "" {
				cfg.WebhookURLs = append(cfg.WebhookURLs, trimmed)
			}
		}
	}

	// Set defaults if not configured
	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(".tms/tms.db"); err == nil {
			cfg.DBPath = ".tms/tms.db"
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "tms", "tms.db")
		}
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/tms/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "tms", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return string(data)
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// GetActorID returns the current actor identifier from environment or config.
// Priority: TMS_ACTOR_ID > TMS_ACTOR > config.default_actor. An empty result
// means no actor is configured; callers must reject the write rather than
// fall back to an implicit identity.
func (c *Config) GetActorID() string {
	if actorID := os.Getenv("TMS_ACTOR_ID"); actorID != "" {
		return actorID
	}
	if actor := os.Getenv("TMS_ACTOR"); actor != "" {
		return actor
	}
	return c.DefaultActor
}
