package audio

import (
	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/alantsov/voice-input/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3                                          // consecutive speech frames to confirm voice
)

// vadScanner classifies 20 ms frames of S16LE audio. It is owned by the
// worker goroutine and needs no locking.
type vadScanner struct {
	vad *webrtcvad.VAD

	buf           []byte
	voiceDetected bool
	speechRun     int
	totalFrames   int
	speechFrames  int
	tickTotal     int
	tickSpeech    int
}

func newVADScanner() (*vadScanner, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadScanner{vad: v}, nil
}

func (s *vadScanner) Process(data []byte) {
	s.buf = append(s.buf, data...)
	for len(s.buf) >= vadFrameBytes {
		frame := s.buf[:vadFrameBytes]
		s.buf = s.buf[vadFrameBytes:]

		active, err := s.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		s.totalFrames++
		if active {
			s.speechFrames++
			s.speechRun++
			if s.speechRun >= vadDebounce {
				s.voiceDetected = true
			}
		} else {
			s.speechRun = 0
		}
	}
}

func (s *vadScanner) VoiceDetected() bool { return s.voiceDetected }

// Ratio reports the fraction of frames classified as speech so far.
func (s *vadScanner) Ratio() float64 {
	if s.totalFrames == 0 {
		return 0
	}
	return float64(s.speechFrames) / float64(s.totalFrames)
}

const speechThreshold = 0.10

// HasSpeechTick reports whether speech crossed the threshold since the last
// call; used by the silence monitor between ticks.
func (s *vadScanner) HasSpeechTick() bool {
	t := s.totalFrames - s.tickTotal
	sp := s.speechFrames - s.tickSpeech
	s.tickTotal, s.tickSpeech = s.totalFrames, s.speechFrames
	if t == 0 {
		return false
	}
	return float64(sp)/float64(t) >= speechThreshold
}

func (s *vadScanner) Reset() {
	s.buf = s.buf[:0]
	s.voiceDetected = false
	s.speechRun = 0
	s.totalFrames = 0
	s.speechFrames = 0
	s.tickTotal = 0
	s.tickSpeech = 0
}
