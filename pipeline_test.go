package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/audio"
	"github.com/alantsov/voice-input/beep"
	"github.com/alantsov/voice-input/hotkey"
	"github.com/alantsov/voice-input/model"
	"github.com/alantsov/voice-input/transcriber"
)

func TestMain(m *testing.M) {
	// Tests must stay silent even when a cue-playing sink is in the chain.
	beep.Disable()
	os.Exit(m.Run())
}

type recordingSink struct {
	updates chan app.Update
}

func (s *recordingSink) Consume(u app.Update) { s.updates <- u }

func (s *recordingSink) waitPhase(t *testing.T, want app.Phase) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-s.updates:
			if sc, ok := u.(app.StateChanged); ok && sc.State.Phase == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v", want)
		}
	}
}

func (s *recordingSink) waitTranscript(t *testing.T) app.Transcript {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-s.updates:
			if tr, ok := u.(app.Transcript); ok {
				return tr
			}
		case <-deadline:
			t.Fatal("timed out waiting for transcript")
		}
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

// TestDictationPipeline drives the whole stack with fakes: hotkey edges in,
// transcript update out.
func TestDictationPipeline(t *testing.T) {
	modelDir := t.TempDir()
	for _, f := range []string{"ggml-small.en.bin", "ggml-small.bin"} {
		if err := os.WriteFile(filepath.Join(modelDir, f), []byte("ggml"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	audioCmds := make(chan app.AudioCommand, 4)
	modelCmds := make(chan app.ModelCommand, 4)
	transCmds := make(chan app.TranscriptionCommand, 4)

	sink := &recordingSink{updates: make(chan app.Update, 256)}
	machine := app.New(app.Config{
		InitialModel: "small",
		Language:     "en",
	}, app.Workers{
		Audio:       audioCmds,
		Model:       modelCmds,
		Transcriber: transCmds,
	}, sink)

	audioCtx := audio.NewFakeContext(tonePCM(16000))
	engine := transcriber.NewFake("hello world", nil)

	go audio.NewWorker(audioCtx, nil, audioCmds, machine, audio.WorkerConfig{}).Run()
	go model.NewWorker(modelCmds, machine, modelDir).Run()
	go transcriber.NewWorker(engine, transCmds, machine).Run()
	go machine.Run()
	defer func() {
		machine.Submit(app.Quit{})
		select {
		case <-machine.Done():
		case <-time.After(5 * time.Second):
			t.Error("machine did not shut down")
		}
	}()

	src := hotkey.NewFake()
	router := hotkey.NewRouter(src, machine)
	go router.Run()
	defer router.Stop()

	sink.waitPhase(t, app.PhaseReady)

	src.SimPress(hotkey.KeyModifier)
	src.SimPress(hotkey.KeyTrigger)
	sink.waitPhase(t, app.PhaseRecording)

	capture := waitForFakeCapture(t, audioCtx)
	capture.FeedAll()

	src.SimRelease(hotkey.KeyTrigger)
	src.SimRelease(hotkey.KeyModifier)
	sink.waitPhase(t, app.PhaseTranscribing)

	tr := sink.waitTranscript(t)
	if !tr.NoSpeech && tr.Text != "hello world" {
		t.Errorf("transcript = %q, want %q", tr.Text, "hello world")
	}
	sink.waitPhase(t, app.PhaseReady)
}

func waitForFakeCapture(t *testing.T, ctx *audio.FakeContext) *audio.FakeCapture {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c := ctx.Last(); c != nil && c.HasCallback() {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("audio worker never installed its callback")
	return nil
}
