package transcriber

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/alantsov/voice-input/app"
)

type eventRecorder struct {
	events chan app.Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{events: make(chan app.Event, 16)}
}

func (r *eventRecorder) Submit(e app.Event) bool {
	r.events <- e
	return true
}

func (r *eventRecorder) next(t *testing.T) app.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func startWorker(t *testing.T, engine Engine) (chan app.TranscriptionCommand, *eventRecorder) {
	t.Helper()
	cmds := make(chan app.TranscriptionCommand, 8)
	rec := newEventRecorder()
	w := NewWorker(engine, cmds, rec)
	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()
	t.Cleanup(func() {
		cmds <- app.TranscriberShutdown{}
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("worker did not shut down")
		}
	})
	return cmds, rec
}

func speechBuffer() app.Buffer {
	return app.Buffer{
		Samples:     make([]float32, 16000),
		SampleRate:  16000,
		Channels:    1,
		SpeechRatio: 0.7,
	}
}

func TestProcessYieldsText(t *testing.T) {
	engine := NewFake("hello world", nil)
	cmds, rec := startWorker(t, engine)

	cmds <- app.Process{
		Buffer:    speechBuffer(),
		Language:  "en",
		ModelPath: "/models/ggml-small.en.bin",
	}

	ev := rec.next(t)
	done, ok := ev.(app.TranscriptionDone)
	if !ok {
		t.Fatalf("expected TranscriptionDone, got %s", ev.Name())
	}
	if done.Text != "hello world" {
		t.Errorf("text = %q, want %q", done.Text, "hello world")
	}
	if done.NoSpeech {
		t.Error("unexpected no-speech flag")
	}

	calls := engine.Calls()
	if len(calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(calls))
	}
	if calls[0].ModelPath != "/models/ggml-small.en.bin" || calls[0].Language != "en" {
		t.Errorf("options = %+v", calls[0])
	}
}

func TestLowSpeechRatioSkipsEngine(t *testing.T) {
	engine := NewFake("should not run", nil)
	cmds, rec := startWorker(t, engine)

	buf := speechBuffer()
	buf.SpeechRatio = 0.01
	cmds <- app.Process{Buffer: buf}

	ev := rec.next(t)
	done, ok := ev.(app.TranscriptionDone)
	if !ok {
		t.Fatalf("expected TranscriptionDone, got %s", ev.Name())
	}
	if !done.NoSpeech {
		t.Error("expected no-speech result")
	}
	if len(engine.Calls()) != 0 {
		t.Error("engine should not have been called")
	}
}

func TestEmptyTextReportsNoSpeech(t *testing.T) {
	engine := NewFake("", nil)
	cmds, rec := startWorker(t, engine)

	cmds <- app.Process{Buffer: speechBuffer()}

	done, ok := rec.next(t).(app.TranscriptionDone)
	if !ok || !done.NoSpeech {
		t.Fatal("expected no-speech result for empty engine output")
	}
}

func TestEngineErrorReportsFailure(t *testing.T) {
	engine := NewFake("", errors.New("model file corrupt"))
	cmds, rec := startWorker(t, engine)

	cmds <- app.Process{Buffer: speechBuffer()}

	ev := rec.next(t)
	failed, ok := ev.(app.TranscriptionFailed)
	if !ok {
		t.Fatalf("expected TranscriptionFailed, got %s", ev.Name())
	}
	if failed.Reason != "model file corrupt" {
		t.Errorf("reason = %q", failed.Reason)
	}
}

func TestCancelAbortsEngine(t *testing.T) {
	engine := NewFake("late", nil)
	engine.Delay = 10 * time.Second
	cmds, rec := startWorker(t, engine)

	cancel := make(chan struct{})
	cmds <- app.Process{Buffer: speechBuffer(), Cancel: cancel}
	close(cancel)

	ev := rec.next(t)
	if _, ok := ev.(app.TranscriptionFailed); !ok {
		t.Fatalf("expected TranscriptionFailed after cancel, got %s", ev.Name())
	}
}

func TestOverlappingRequestRejected(t *testing.T) {
	engine := NewFake("first", nil)
	engine.Delay = 300 * time.Millisecond
	cmds, rec := startWorker(t, engine)

	cmds <- app.Process{Buffer: speechBuffer()}
	cmds <- app.Process{Buffer: speechBuffer()}

	ev := rec.next(t)
	failed, ok := ev.(app.TranscriptionFailed)
	if !ok {
		t.Fatalf("expected TranscriptionFailed for the second request, got %s", ev.Name())
	}
	if failed.Reason != "busy" {
		t.Errorf("reason = %q, want %q", failed.Reason, "busy")
	}

	done, ok := rec.next(t).(app.TranscriptionDone)
	if !ok || done.Text != "first" {
		t.Fatalf("first request should still complete, got %+v", done)
	}
	if len(engine.Calls()) != 1 {
		t.Errorf("engine calls = %d, want 1", len(engine.Calls()))
	}
}

func TestWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0}
	data := wavBytes(samples, 16000)

	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
	if len(data) != 44+len(samples)*2 {
		t.Errorf("total size = %d, want %d", len(data), 44+len(samples)*2)
	}
	if got := int16(binary.LittleEndian.Uint16(data[50:])); got != 32767 {
		t.Errorf("clipped sample = %d, want 32767", got)
	}
}
