// Package clipboard delivers transcripts to the focused application via the
// system clipboard and a synthetic paste keystroke.
package clipboard

import cb "github.com/atotto/clipboard"

// Read returns the current clipboard contents.
func Read() (string, error) {
	return cb.ReadAll()
}

// Copy replaces the clipboard contents with text.
func Copy(text string) error {
	return cb.WriteAll(text)
}
