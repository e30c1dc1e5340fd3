// Package app is the concurrency core of voice-input: the event, command
// and update vocabulary spoken between the state machine and its workers,
// and the single-goroutine state machine that owns every transition.
//
// Nothing in this package touches a device, the network or the filesystem.
// Workers live in audio, model and transcriber; presentation sinks live in
// tray and the terminal UI. Channels are the only synchronization primitive
// between them.
package app

import "fmt"

// Phase is the coarse application state. Exactly one value is active at any
// instant; only the machine's run goroutine reads or writes it.
type Phase int

const (
	PhaseLoadingModel Phase = iota
	PhaseReady
	PhaseRecording
	PhaseTranscribing
	PhaseFailed
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadingModel:
		return "loading_model"
	case PhaseReady:
		return "ready"
	case PhaseRecording:
		return "recording"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseFailed:
		return "failed"
	case PhaseShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the full machine state: the phase plus failure detail when the
// phase is PhaseFailed. Recoverable failures return to service via an
// explicit LoadModel event; unrecoverable ones only answer to Quit.
type State struct {
	Phase       Phase
	Recoverable bool
	Message     string
}

func (s State) String() string {
	if s.Phase == PhaseFailed {
		kind := "unrecoverable"
		if s.Recoverable {
			kind = "recoverable"
		}
		return fmt.Sprintf("failed(%s: %s)", kind, s.Message)
	}
	return s.Phase.String()
}

// Update is the output-only union delivered to presentation sinks.
type Update interface{ update() }

// StateChanged is emitted on every transition that changes state.
type StateChanged struct{ State State }

// Transcript carries the finished dictation text. NoSpeech marks a
// recording in which voice activity detection found nothing to transcribe.
type Transcript struct {
	Text     string
	NoSpeech bool
}

// Err is a human-readable failure notice. Every failure path surfaces
// exactly one of these.
type Err struct{ Message string }

// Progress reports model download progress in whole percent.
type Progress struct {
	Model   string
	Percent int
}

// ActiveModel announces which model now serves transcription.
type ActiveModel struct{ Model string }

// SettingsChanged announces a user preference change so it can be rendered
// and persisted. AutoLanguage true means no pinned language; Language then
// holds the most recent detection result.
type SettingsChanged struct {
	Language     string
	AutoLanguage bool
	Translate    bool
}

func (StateChanged) update()    {}
func (Transcript) update()      {}
func (Err) update()             {}
func (Progress) update()        {}
func (ActiveModel) update()     {}
func (SettingsChanged) update() {}

// Sink consumes updates for rendering. Implementations must not block for
// long: each sink is fed from its own bounded queue and slow consumers lose
// the oldest pending update.
type Sink interface {
	Consume(Update)
}
