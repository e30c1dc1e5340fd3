package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMapLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   string
		ok     bool
	}{
		{"us", "en", true},
		{"gb", "en", true},
		{"de", "de", true},
		{"fr", "fr", true},
		{"es", "es", true},
		{"it", "it", true},
		{"ru", "ru", true},
		{"us(intl)", "en", true},
		{"de(nodeadkeys)", "de", true},
		{"US", "en", true},
		{"dvorak", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := mapLayout(tt.layout)
		if got != tt.want || ok != tt.ok {
			t.Errorf("mapLayout(%q) = %q, %v; want %q, %v", tt.layout, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromKeyboardConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"plain", "XKBMODEL=\"pc105\"\nXKBLAYOUT=\"de\"\n", "de", true},
		{"multi", "XKBLAYOUT=\"ru,us\"\n", "ru", true},
		{"variant", "XKBLAYOUT=\"us(intl)\"\n", "en", true},
		{"unquoted", "XKBLAYOUT=gb\n", "en", true},
		{"missing", "XKBMODEL=\"pc105\"\n", "", false},
		{"unknown", "XKBLAYOUT=\"dvorak\"\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "keyboard")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, ok := fromKeyboardConfig(path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFromKeyboardConfigMissingFile(t *testing.T) {
	if _, ok := fromKeyboardConfig("/nonexistent/keyboard"); ok {
		t.Error("expected failure for missing file")
	}
}
