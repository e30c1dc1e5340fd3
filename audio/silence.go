package audio

import "time"

const (
	silenceWarnAfter   = 8 * time.Second
	silenceRepeatEvery = 8 * time.Second
)

type silenceEvent int

const (
	silenceNone silenceEvent = iota
	silenceWarn
	silenceClear
)

// silenceMonitor warns when a recording has produced no speech for a while,
// and clears the warning when speech resumes.
type silenceMonitor struct {
	started   time.Time
	lastVoice time.Time
	lastWarn  time.Time
	warned    bool
}

func newSilenceMonitor(now time.Time) *silenceMonitor {
	return &silenceMonitor{started: now, lastVoice: now}
}

func (m *silenceMonitor) tick(now time.Time, hasSpeech bool) silenceEvent {
	if hasSpeech {
		m.lastVoice = now
		if m.warned {
			m.warned = false
			return silenceClear
		}
		return silenceNone
	}

	if now.Sub(m.lastVoice) < silenceWarnAfter {
		return silenceNone
	}
	if !m.warned || now.Sub(m.lastWarn) >= silenceRepeatEvery {
		m.warned = true
		m.lastWarn = now
		return silenceWarn
	}
	return silenceNone
}
