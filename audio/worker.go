package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/encoder"
	"github.com/alantsov/voice-input/log"
)

// Submitter accepts events for the state machine.
type Submitter interface {
	Submit(app.Event) bool
}

type WorkerConfig struct {
	SampleRate  uint32
	MaxDuration time.Duration // capture bound, finalizes like a stop
	ArchiveDir  string        // when set, finished captures are archived as FLAC
	TickEvery   time.Duration
	DataTimeout time.Duration // no callback data for this long means the device is gone
}

func (c *WorkerConfig) defaults() {
	if c.SampleRate == 0 {
		c.SampleRate = encoder.SampleRate
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = 5 * time.Minute
	}
	if c.TickEvery == 0 {
		c.TickEvery = 500 * time.Millisecond
	}
	if c.DataTimeout == 0 {
		c.DataTimeout = 2 * time.Second
	}
}

// Worker owns the capture device. It executes start/stop commands, buffers
// samples, and reports results as events. All sample data lives in this
// goroutine; finished buffers are handed off by value and never touched again.
type Worker struct {
	ctx    Context
	device *DeviceInfo
	cmds   <-chan app.AudioCommand
	dst    Submitter
	cfg    WorkerConfig

	dataCh chan []byte

	recording bool
	capture   CaptureDevice
	pcm       []int16
	vad       *vadScanner
	monitor   *silenceMonitor
	lastData  time.Time
}

func NewWorker(ctx Context, device *DeviceInfo, cmds <-chan app.AudioCommand, dst Submitter, cfg WorkerConfig) *Worker {
	cfg.defaults()
	return &Worker{
		ctx:    ctx,
		device: device,
		cmds:   cmds,
		dst:    dst,
		cfg:    cfg,
		dataCh: make(chan []byte, 64),
	}
}

func (w *Worker) Run() {
	vad, err := newVADScanner()
	if err != nil {
		log.Warnf("vad unavailable: %v", err)
	}
	w.vad = vad

	ticker := time.NewTicker(w.cfg.TickEvery)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-w.cmds:
			switch c := cmd.(type) {
			case app.AudioStart:
				w.start()
			case app.AudioStop:
				w.stop()
			case app.AudioShutdown:
				w.discard()
				if c.Ack != nil {
					close(c.Ack)
				}
				return
			}
		case data := <-w.dataCh:
			w.ingest(data)
		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

func (w *Worker) start() {
	if w.recording {
		log.Warn("start ignored, already recording")
		return
	}

	capture, err := w.ctx.NewCapture(w.device, CaptureConfig{
		SampleRate: w.cfg.SampleRate,
		Channels:   1,
	})
	if err != nil {
		w.dst.Submit(app.RecordingLost{Reason: fmt.Sprintf("opening device: %v", err)})
		return
	}

	capture.SetCallback(func(data []byte, _ uint32) {
		chunk := make([]byte, len(data))
		copy(chunk, data)
		select {
		case w.dataCh <- chunk:
		default:
		}
	})

	if err := capture.Start(); err != nil {
		capture.Close()
		w.dst.Submit(app.RecordingLost{Reason: fmt.Sprintf("starting device: %v", err)})
		return
	}

	if w.vad != nil {
		w.vad.Reset()
	}
	w.pcm = nil
	w.capture = capture
	w.recording = true
	now := time.Now()
	w.lastData = now
	w.monitor = newSilenceMonitor(now)
	log.Infof("recording_start: %s", capture.DeviceName())
}

func (w *Worker) ingest(data []byte) {
	if !w.recording {
		return
	}
	if w.vad != nil {
		w.vad.Process(data)
	}
	for i := 0; i+1 < len(data); i += 2 {
		w.pcm = append(w.pcm, int16(uint16(data[i])|uint16(data[i+1])<<8))
	}
	w.lastData = time.Now()

	maxSamples := int(w.cfg.MaxDuration.Seconds() * float64(w.cfg.SampleRate))
	if len(w.pcm) >= maxSamples {
		log.Warnf("recording reached %s bound, finalizing", w.cfg.MaxDuration)
		w.finalize()
	}
}

func (w *Worker) stop() {
	if !w.recording {
		log.Info("stop ignored, not recording")
		return
	}
	w.finalize()
}

// finalize tears down the capture and hands the finished buffer to the
// machine. The sample slice is released here so it is never aliased.
func (w *Worker) finalize() {
	w.teardown()
	w.drain()

	pcm := w.pcm
	w.pcm = nil

	if len(pcm) == 0 {
		log.Info("recording_stop: empty")
		w.dst.Submit(app.RecordingEmpty{})
		return
	}

	ratio := 1.0
	if w.vad != nil {
		ratio = w.vad.Ratio()
		if !w.vad.VoiceDetected() {
			// Scattered positive frames with no sustained run are noise.
			ratio = 0
		}
	}

	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}

	buf := app.Buffer{
		Samples:     samples,
		SampleRate:  w.cfg.SampleRate,
		Channels:    1,
		SpeechRatio: ratio,
	}
	log.Infof("recording_stop: %.1fs speech=%.0f%%", buf.Duration().Seconds(), ratio*100)

	if w.cfg.ArchiveDir != "" {
		if err := archiveFLAC(w.cfg.ArchiveDir, pcm); err != nil {
			log.Errorf("archiving capture: %v", err)
		}
	}

	w.dst.Submit(app.AudioCaptured{Buffer: buf})
}

func (w *Worker) tick(now time.Time) {
	if !w.recording {
		return
	}

	if now.Sub(w.lastData) > w.cfg.DataTimeout {
		w.teardown()
		w.pcm = nil
		w.dst.Submit(app.RecordingLost{Reason: "audio device stopped delivering data"})
		return
	}

	if w.vad == nil {
		return
	}
	switch w.monitor.tick(now, w.vad.HasSpeechTick()) {
	case silenceWarn:
		w.dst.Submit(app.RecordingWarning{Message: "no speech detected"})
	case silenceClear:
		w.dst.Submit(app.RecordingWarning{Message: "speech resumed"})
	}
}

func (w *Worker) teardown() {
	if w.capture != nil {
		w.capture.ClearCallback()
		w.capture.Stop()
		w.capture.Close()
		w.capture = nil
	}
	w.recording = false
}

// drain collects chunks already queued by the callback before teardown.
func (w *Worker) drain() {
	for {
		select {
		case data := <-w.dataCh:
			if w.vad != nil {
				w.vad.Process(data)
			}
			for i := 0; i+1 < len(data); i += 2 {
				w.pcm = append(w.pcm, int16(uint16(data[i])|uint16(data[i+1])<<8))
			}
		default:
			return
		}
	}
}

func (w *Worker) discard() {
	w.teardown()
	w.pcm = nil
}

func archiveFLAC(dir string, pcm []int16) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	enc, err := encoder.NewFlac()
	if err != nil {
		return err
	}
	for i := 0; i < len(pcm); i += encoder.BlockSize {
		end := min(i+encoder.BlockSize, len(pcm))
		if err := enc.EncodeBlock(pcm[i:end]); err != nil {
			return err
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}

	name := fmt.Sprintf("rec-%s.flac", time.Now().Format("20060102-150405"))
	return os.WriteFile(filepath.Join(dir, name), enc.Bytes(), 0o644)
}
