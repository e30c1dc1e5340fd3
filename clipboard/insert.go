package clipboard

import (
	"fmt"
	"time"

	"github.com/alantsov/voice-input/log"
)

const (
	// Compositors need a moment to observe the new clipboard contents
	// before the paste keystroke lands.
	settleDelay  = 100 * time.Millisecond
	restoreDelay = 300 * time.Millisecond
)

// Insert puts text into the focused application: it saves the current
// clipboard, replaces it with the text, injects a paste keystroke, and
// restores the previous contents. Restoration failures are logged only;
// the text is already delivered at that point.
func Insert(text string) error {
	previous, prevErr := Read()
	if prevErr != nil {
		log.Warnf("cannot read clipboard for restore: %v", prevErr)
	}

	if err := Copy(text); err != nil {
		return fmt.Errorf("setting clipboard: %w", err)
	}
	time.Sleep(settleDelay)

	if err := Paste(); err != nil {
		return fmt.Errorf("injecting paste: %w", err)
	}

	if prevErr == nil {
		time.Sleep(restoreDelay)
		if err := Copy(previous); err != nil {
			log.Warnf("restoring clipboard: %v", err)
		}
	}
	return nil
}
