package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alantsov/voice-input/app"
)

// WhisperCPP runs inference through the whisper.cpp command line binary.
type WhisperCPP struct {
	binPath string
}

// NewWhisperCPP locates the whisper.cpp binary. An explicit binPath skips
// the search.
func NewWhisperCPP(binPath string) (*WhisperCPP, error) {
	if binPath == "" {
		binPath = findWhisperBinary()
	}
	if binPath == "" {
		return nil, fmt.Errorf("whisper.cpp binary not found, please install whisper.cpp")
	}
	return &WhisperCPP{binPath: binPath}, nil
}

func (w *WhisperCPP) Name() string { return "whisper.cpp" }

func (w *WhisperCPP) Transcribe(ctx context.Context, buf app.Buffer, opts Options) (string, error) {
	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("voice-input-%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(audioPath, wavBytes(buf.Samples, buf.SampleRate), 0o644); err != nil {
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	defer os.Remove(audioPath)

	args := []string{
		"-m", opts.ModelPath,
		"-f", audioPath,
		"-nt", // no timestamps, plain text on stdout
		"--no-prints",
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if opts.Translate {
		args = append(args, "-tr")
	}

	cmd := exec.CommandContext(ctx, w.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper.cpp failed: %w, stderr: %s", err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// findWhisperBinary checks PATH and common installation locations.
// whisper-cli is the Homebrew name.
func findWhisperBinary() string {
	names := []string{"whisper-cli", "whisper-cpp", "whisper", "main"}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp"),
	}

	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
