// Package config loads daemon configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`

	Gemini struct {
		APIKey        string        `yaml:"api_key"`
		Model         string        `yaml:"model"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxConcurrent int64         `yaml:"max_concurrent"`
	} `yaml:"gemini"`

	Scheduler struct {
		Interval    time.Duration `yaml:"interval"`
		HorizonDays int           `yaml:"horizon_days"`
	} `yaml:"scheduler"`
}

// Default returns the built-in defaults.
func Default() *Config {
	cfg := &Config{
		Listen: "127.0.0.1:8080",
	}
	homeDir, _ := os.UserHomeDir()
	cfg.DBPath = filepath.Join(homeDir, ".journal-assistant", "journal.db")
	cfg.Gemini.Model = "gemini-2.5-flash"
	cfg.Gemini.Timeout = 30 * time.Second
	cfg.Gemini.MaxConcurrent = 4
	cfg.Scheduler.Interval = time.Hour
	cfg.Scheduler.HorizonDays = 7
	return cfg
}

// Load reads configuration from path (missing file means defaults), then
// applies environment overrides. The API key is normally supplied via
// GEMINI_API_KEY rather than the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("JOURNAL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("JOURNAL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	return cfg, nil
}
