package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("VOICE_INPUT_LOG_PATH", "/tmp/voice-input-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/voice-input-env-log" {
		t.Errorf("got %q, want /tmp/voice-input-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("VOICE_INPUT_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("default dir should not be empty")
	}
	if !strings.Contains(got, "voice-input") {
		t.Errorf("default dir %q should contain the app name", got)
	}
}

func TestInitAndTranscriptionText(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Info("hello_event")
	Transition("ready", "start_recording", "recording")
	TranscriptionText("the quick brown fox")
	Close()

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(diag), "hello_event") {
		t.Error("diagnostics log missing info entry")
	}
	if !strings.Contains(string(diag), "start_recording") {
		t.Error("diagnostics log missing transition entry")
	}

	audit, err := os.ReadFile(filepath.Join(tmp, "transcribe_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(audit), "the quick brown fox") {
		t.Error("audit log missing transcript")
	}
}

func TestLogBeforeInitIsSilent(t *testing.T) {
	tmp := setupLogDir(t)

	Info("should_not_appear")

	if _, err := os.Stat(filepath.Join(tmp, "diagnostics_log.txt")); !os.IsNotExist(err) {
		t.Error("log file should not exist before Init")
	}
}
