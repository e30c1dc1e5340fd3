//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Notify registers ch for the signals that should end a dictation session.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
