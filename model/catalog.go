package model

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
)

const baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Descriptor is one ggml artifact of a logical model.
type Descriptor struct {
	Name    string // logical model name
	File    string
	URL     string
	Size    int64 // approximate, used for progress when Content-Length is absent
	Path    string
	English bool
}

// artifact file names and approximate sizes per logical model. "large" ships
// a single multilingual file; the others have an English-only variant that
// transcribes English faster.
var catalog = map[string][]Descriptor{
	"small": {
		{File: "ggml-small.en.bin", Size: 488 << 20, English: true},
		{File: "ggml-small.bin", Size: 488 << 20},
	},
	"medium": {
		{File: "ggml-medium.en.bin", Size: 1533 << 20, English: true},
		{File: "ggml-medium.bin", Size: 1533 << 20},
	},
	"large": {
		{File: "ggml-large-v2.bin", Size: 3094 << 20},
	},
}

// Names lists the logical models in menu order.
func Names() []string {
	return []string{"small", "medium", "large"}
}

func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Dir is the on-disk model store.
func Dir() string {
	return filepath.Join(xdg.DataHome, "voice-input", "models")
}

// Lookup resolves a logical model name to its artifacts rooted at dir.
func Lookup(name, dir string) ([]Descriptor, error) {
	files, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	out := make([]Descriptor, len(files))
	for i, f := range files {
		f.Name = name
		f.URL = baseURL + f.File
		f.Path = filepath.Join(dir, f.File)
		out[i] = f
	}
	return out, nil
}
