package transcriber

import (
	"context"

	"github.com/alantsov/voice-input/app"
)

// Options select the model artifact and decoding behavior for one request.
type Options struct {
	ModelPath string
	Language  string
	Translate bool // translate non-English speech to English
}

// Engine turns a finished capture into text. Implementations must honor
// context cancellation; a canceled call may return partial work or an error.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, buf app.Buffer, opts Options) (string, error)
}
