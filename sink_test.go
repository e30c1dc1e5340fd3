package main

import (
	"path/filepath"
	"testing"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/config"
)

func TestConfigSinkPersistsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	sink := &configSink{path: path, cfg: config.Config{SelectedModel: "small"}}

	sink.Consume(app.SettingsChanged{Language: "de", Translate: true})

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Translate {
		t.Error("translate not persisted")
	}
	if cfg.Language != "de" {
		t.Errorf("language = %q, want %q", cfg.Language, "de")
	}

	// Returning to auto-detection clears the stored language.
	sink.Consume(app.SettingsChanged{Language: "de", AutoLanguage: true, Translate: true})
	cfg, err = config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != "" {
		t.Errorf("language = %q, want empty after returning to auto", cfg.Language)
	}
}

func TestConfigSinkPersistsModelChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	sink := &configSink{path: path, cfg: config.Config{SelectedModel: "small"}}

	sink.Consume(app.ActiveModel{Model: "medium"})

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SelectedModel != "medium" {
		t.Errorf("selected model = %q, want %q", cfg.SelectedModel, "medium")
	}
}
