package transcriber

import (
	"context"
	"sync"
	"time"

	"github.com/alantsov/voice-input/app"
)

type FakeEngine struct {
	Text  string
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	calls []Options
}

func NewFake(text string, err error) *FakeEngine {
	return &FakeEngine{Text: text, Err: err}
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) Transcribe(ctx context.Context, _ app.Buffer, opts Options) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *FakeEngine) Calls() []Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Options, len(f.calls))
	copy(out, f.calls)
	return out
}
