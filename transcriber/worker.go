package transcriber

import (
	"context"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/log"
)

// Submitter accepts events for the state machine.
type Submitter interface {
	Submit(app.Event) bool
}

// Captures with less speech than this skip inference entirely.
const minSpeechRatio = 0.05

// Worker executes transcription requests one at a time. Each request carries
// its own cancel channel; cancellation aborts the engine call, and the
// resulting late failure is dropped upstream. A request arriving while one
// is still running is rejected outright; the machine never overlaps them.
type Worker struct {
	engine Engine
	cmds   <-chan app.TranscriptionCommand
	dst    Submitter
}

func NewWorker(engine Engine, cmds <-chan app.TranscriptionCommand, dst Submitter) *Worker {
	return &Worker{engine: engine, cmds: cmds, dst: dst}
}

func (w *Worker) Run() {
	idle := make(chan struct{}, 1)
	busy := false
	for {
		select {
		case cmd := <-w.cmds:
			switch c := cmd.(type) {
			case app.Process:
				if busy {
					log.Warn("transcription request while one is running, rejected")
					w.dst.Submit(app.TranscriptionFailed{Reason: "busy"})
					continue
				}
				busy = true
				go func() {
					w.process(c)
					idle <- struct{}{}
				}()
			case app.TranscriberShutdown:
				if c.Ack != nil {
					close(c.Ack)
				}
				return
			}
		case <-idle:
			busy = false
		}
	}
}

func (w *Worker) process(cmd app.Process) {
	if cmd.Buffer.SpeechRatio < minSpeechRatio {
		log.Infof("skipping inference, speech ratio %.2f", cmd.Buffer.SpeechRatio)
		w.dst.Submit(app.TranscriptionDone{NoSpeech: true})
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	go func() {
		select {
		case <-cmd.Cancel:
			stop()
		case <-ctx.Done():
		}
	}()

	text, err := w.engine.Transcribe(ctx, cmd.Buffer, Options{
		ModelPath: cmd.ModelPath,
		Language:  cmd.Language,
		Translate: cmd.Translate,
	})
	stop()

	if err != nil {
		w.dst.Submit(app.TranscriptionFailed{Reason: err.Error()})
		return
	}
	if text == "" {
		w.dst.Submit(app.TranscriptionDone{NoSpeech: true})
		return
	}
	w.dst.Submit(app.TranscriptionDone{Text: text})
}
