package app

// Event is the only input to the state machine. Events are immutable
// values; once constructed they move across the intake channel and are
// never touched again by the sender.
type Event interface {
	event()
	// Name is the stable identifier used in transition logs.
	Name() string
}

// ModelLoaded reports that every artifact of the named logical model is
// resolvable locally. The machine keeps only name and paths, never the
// worker's descriptor.
type ModelLoaded struct {
	Model            string
	EnglishPath      string // empty when the model has no English-only variant
	MultilingualPath string
}

// ModelLoadFailed reports a failed load or download. Retryable failures can
// be retried as-is; non-retryable ones exhausted their attempts.
type ModelLoadFailed struct {
	Model     string
	Reason    string
	Retryable bool
}

// StartRecording and StopRecording are the semantic intents produced by the
// hotkey router, one pair per physical gesture.
type StartRecording struct{}
type StopRecording struct{}

// AudioCaptured hands the finished buffer to the machine. Ownership moves
// with the event.
type AudioCaptured struct{ Buffer Buffer }

// RecordingLost reports that the capture device disappeared mid-recording.
// No persistent damage: the machine returns straight to ready.
type RecordingLost struct{ Reason string }

// RecordingEmpty reports a stop with nothing captured.
type RecordingEmpty struct{}

// RecordingWarning is a non-fatal notice during capture (prolonged silence).
type RecordingWarning struct{ Message string }

// TranscriptionDone delivers the inference output.
type TranscriptionDone struct {
	Text     string
	NoSpeech bool
}

// TranscriptionFailed reports an inference failure, including the
// machine-synthesized "timeout".
type TranscriptionFailed struct{ Reason string }

// ChangeModel switches the active model while ready.
type ChangeModel struct{ Model string }

// LoadModel retries a model load from the recoverable failure state.
type LoadModel struct{ Model string }

// LanguageDetected carries the keyboard-layout language for the next
// transcription.
type LanguageDetected struct{ Code string }

// SetLanguage pins the transcription language to an explicit user choice.
// An empty code returns to per-recording detection.
type SetLanguage struct{ Code string }

// SetTranslate toggles translate-to-English mode.
type SetTranslate struct{ Enabled bool }

// DownloadProgress is forwarded to sinks as a Progress update.
type DownloadProgress struct {
	Model   string
	Percent int
}

// Quit requests shutdown. It preempts any queued event.
type Quit struct{}

func (ModelLoaded) event()         {}
func (ModelLoadFailed) event()     {}
func (StartRecording) event()      {}
func (StopRecording) event()       {}
func (AudioCaptured) event()       {}
func (RecordingLost) event()       {}
func (RecordingEmpty) event()      {}
func (RecordingWarning) event()    {}
func (TranscriptionDone) event()   {}
func (TranscriptionFailed) event() {}
func (ChangeModel) event()         {}
func (LoadModel) event()           {}
func (LanguageDetected) event()    {}
func (SetLanguage) event()         {}
func (SetTranslate) event()        {}
func (DownloadProgress) event()    {}
func (Quit) event()                {}

func (ModelLoaded) Name() string         { return "model_loaded" }
func (ModelLoadFailed) Name() string     { return "model_load_failed" }
func (StartRecording) Name() string      { return "start_recording" }
func (StopRecording) Name() string       { return "stop_recording" }
func (AudioCaptured) Name() string       { return "audio_captured" }
func (RecordingLost) Name() string       { return "recording_lost" }
func (RecordingEmpty) Name() string      { return "recording_empty" }
func (RecordingWarning) Name() string    { return "recording_warning" }
func (TranscriptionDone) Name() string   { return "transcription_done" }
func (TranscriptionFailed) Name() string { return "transcription_failed" }
func (ChangeModel) Name() string         { return "change_model" }
func (LoadModel) Name() string           { return "load_model" }
func (LanguageDetected) Name() string    { return "language_detected" }
func (SetLanguage) Name() string         { return "set_language" }
func (SetTranslate) Name() string        { return "set_translate" }
func (DownloadProgress) Name() string    { return "download_progress" }
func (Quit) Name() string                { return "quit" }
