package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/alantsov/voice-input/app"
)

type eventRecorder struct {
	events chan app.Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{events: make(chan app.Event, 32)}
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

// tonePCM builds n samples of a loud square wave, S16LE mono.
func tonePCM(n int) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(8000)
		if (i/80)%2 == 0 {
			s = -8000
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func startWorker(t *testing.T, ctx *FakeContext, cfg WorkerConfig) (chan app.AudioCommand, *eventRecorder) {
	t.Helper()
	cmds := make(chan app.AudioCommand, 8)
	rec := newEventRecorder()
	w := NewWorker(ctx, nil, cmds, rec, cfg)
	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()
	t.Cleanup(func() {
		cmds <- app.AudioShutdown{}
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("worker did not shut down")
		}
	})
	return cmds, rec
}

func waitForCallback(t *testing.T, ctx *FakeContext) *FakeCapture {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c := ctx.Last(); c != nil && c.HasCallback() {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("capture callback was never installed")
	return nil
}

func TestCaptureRoundTrip(t *testing.T) {
	ctx := NewFakeContext(tonePCM(16000))
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	capture := waitForCallback(t, ctx)
	capture.FeedAll()
	cmds <- app.AudioStop{}

	ev := rec.next(t)
	captured, ok := ev.(app.AudioCaptured)
	if !ok {
		t.Fatalf("expected AudioCaptured, got %s", ev.Name())
	}
	if len(captured.Buffer.Samples) != 16000 {
		t.Errorf("samples = %d, want 16000", len(captured.Buffer.Samples))
	}
	if captured.Buffer.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", captured.Buffer.SampleRate)
	}
	if !capture.Closed() {
		t.Error("capture device was not closed after stop")
	}
}

func TestEmptyCaptureReported(t *testing.T) {
	ctx := NewFakeContext(nil)
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	waitForCallback(t, ctx)
	cmds <- app.AudioStop{}

	if _, ok := rec.next(t).(app.RecordingEmpty); !ok {
		t.Fatal("expected RecordingEmpty for a capture with no data")
	}
}

func TestOpenFailureReportsLoss(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.FailNextOpen()
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	if _, ok := rec.next(t).(app.RecordingLost); !ok {
		t.Fatal("expected RecordingLost when device cannot be opened")
	}
}

func TestStartFailureReportsLoss(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.FailNextStart()
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	if _, ok := rec.next(t).(app.RecordingLost); !ok {
		t.Fatal("expected RecordingLost when device cannot start")
	}
}

func TestCaptureBoundFinalizesWithoutStop(t *testing.T) {
	ctx := NewFakeContext(tonePCM(8000))
	cmds, rec := startWorker(t, ctx, WorkerConfig{MaxDuration: 100 * time.Millisecond})

	cmds <- app.AudioStart{}
	capture := waitForCallback(t, ctx)
	// 8000 samples is well past the 1600-sample bound.
	capture.FeedAll()

	ev := rec.next(t)
	captured, ok := ev.(app.AudioCaptured)
	if !ok {
		t.Fatalf("expected AudioCaptured, got %s", ev.Name())
	}
	if len(captured.Buffer.Samples) < 1600 {
		t.Errorf("samples = %d, want at least the bound", len(captured.Buffer.Samples))
	}
}

func TestSilentDeviceReportsLoss(t *testing.T) {
	ctx := NewFakeContext(nil)
	cmds, rec := startWorker(t, ctx, WorkerConfig{
		TickEvery:   10 * time.Millisecond,
		DataTimeout: 50 * time.Millisecond,
	})

	cmds <- app.AudioStart{}
	waitForCallback(t, ctx)
	// Feed nothing: the watchdog must fire.
	ev := rec.next(t)
	if _, ok := ev.(app.RecordingLost); !ok {
		t.Fatalf("expected RecordingLost, got %s", ev.Name())
	}
}

func TestDuplicateStartIgnored(t *testing.T) {
	ctx := NewFakeContext(tonePCM(1600))
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	capture := waitForCallback(t, ctx)
	cmds <- app.AudioStart{}

	capture.FeedAll()
	cmds <- app.AudioStop{}

	if _, ok := rec.next(t).(app.AudioCaptured); !ok {
		t.Fatal("expected a single capture result")
	}
	select {
	case e := <-rec.events:
		t.Fatalf("unexpected extra event %s", e.Name())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSilentCaptureGatedAsNoSpeech(t *testing.T) {
	ctx := NewFakeContext(make([]byte, 16000*2))
	cmds, rec := startWorker(t, ctx, WorkerConfig{})

	cmds <- app.AudioStart{}
	capture := waitForCallback(t, ctx)
	capture.FeedAll()
	cmds <- app.AudioStop{}

	ev := rec.next(t)
	captured, ok := ev.(app.AudioCaptured)
	if !ok {
		t.Fatalf("expected AudioCaptured, got %s", ev.Name())
	}
	if captured.Buffer.SpeechRatio != 0 {
		t.Errorf("speech ratio = %v, want 0 for pure silence", captured.Buffer.SpeechRatio)
	}
}

func TestShutdownAcknowledged(t *testing.T) {
	ctx := NewFakeContext(nil)
	cmds, _ := startWorker(t, ctx, WorkerConfig{})

	ack := make(chan struct{})
	cmds <- app.AudioShutdown{Ack: ack}
	select {
	case <-ack:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was never acknowledged")
	}
}
