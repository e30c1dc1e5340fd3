//go:build windows

package beep

// No cue playback backend on Windows yet.

func Init()      {}
func PlayStart() {}
func PlayEnd()   {}
func PlayError() {}
