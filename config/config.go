// Package config persists user settings between runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/alantsov/voice-input/log"
)

type Config struct {
	SelectedModel string `json:"selected_model"`
	Language      string `json:"language"`
	Translate     bool   `json:"translate"`
	Autopaste     bool   `json:"autopaste"`
}

func defaults() Config {
	return Config{
		SelectedModel: "small",
		Autopaste:     true,
	}
}

// Path is the config file location under the XDG config directory.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "voice-input", "config.json")
}

// Load reads the config, applying defaults when the file is absent.
// Legacy model names are normalized; a normalization is written back so the
// file stops carrying the old name.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if normalized := normalizeModel(cfg.SelectedModel); normalized != cfg.SelectedModel {
		log.Infof("migrating model %q to %q", cfg.SelectedModel, normalized)
		cfg.SelectedModel = normalized
		if err := Save(path, cfg); err != nil {
			log.Warnf("persisting model migration: %v", err)
		}
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// normalizeModel maps retired model names onto the smallest supported one.
func normalizeModel(name string) string {
	switch name {
	case "tiny", "base", "":
		return "small"
	}
	return name
}
