package app

// Commands carry everything a worker needs by value. A worker never reaches
// back into machine state; cancellation travels as a channel the machine
// closes when a deadline expires.

// AudioCommand drives the audio worker.
type AudioCommand interface{ audioCommand() }

// AudioStart opens the capture device and begins buffering samples.
type AudioStart struct{}

// AudioStop finalizes the buffer and hands it over via AudioCaptured.
type AudioStop struct{}

// AudioShutdown releases the device and ends the worker. The worker closes
// Ack, when non-nil, once it has torn down.
type AudioShutdown struct {
	Ack chan struct{}
}

func (AudioStart) audioCommand()    {}
func (AudioStop) audioCommand()     {}
func (AudioShutdown) audioCommand() {}

// TranscriptionCommand drives the transcription worker.
type TranscriptionCommand interface{ transcriptionCommand() }

// Process runs inference on an owned buffer. The buffer is consumed no
// matter the outcome. Cancel, when non-nil, aborts the run best-effort; a
// late result is ignored by the machine.
type Process struct {
	Buffer    Buffer
	Language  string
	ModelPath string
	Translate bool
	Cancel    <-chan struct{}
}

// TranscriberShutdown ends the worker. The worker closes Ack, when non-nil,
// once its loop has exited.
type TranscriberShutdown struct {
	Ack chan struct{}
}

func (Process) transcriptionCommand()             {}
func (TranscriberShutdown) transcriptionCommand() {}

// ModelCommand drives the model worker.
type ModelCommand interface{ modelCommand() }

// ModelLoad resolves the named model locally, downloading when absent.
type ModelLoad struct {
	Model  string
	Cancel <-chan struct{}
}

// ModelShutdown ends the worker. The worker closes Ack, when non-nil, once
// its loop has exited.
type ModelShutdown struct {
	Ack chan struct{}
}

func (ModelLoad) modelCommand()     {}
func (ModelShutdown) modelCommand() {}
