package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SelectedModel != "small" {
		t.Errorf("model = %q, want small", cfg.SelectedModel)
	}
	if !cfg.Autopaste {
		t.Error("autopaste should default to true")
	}
	if cfg.Translate {
		t.Error("translate should default to false")
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := Config{SelectedModel: "medium", Language: "de", Translate: true, Autopaste: false}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLegacyModelMigrated(t *testing.T) {
	for _, legacy := range []string{"tiny", "base"} {
		t.Run(legacy, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := Save(path, Config{SelectedModel: legacy}); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.SelectedModel != "small" {
				t.Errorf("model = %q, want small", cfg.SelectedModel)
			}

			// The migration is written back.
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var onDisk Config
			if err := json.Unmarshal(data, &onDisk); err != nil {
				t.Fatal(err)
			}
			if onDisk.SelectedModel != "small" {
				t.Errorf("persisted model = %q, want small", onDisk.SelectedModel)
			}
		})
	}
}

func TestCorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
