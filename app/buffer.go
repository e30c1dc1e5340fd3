package app

import "time"

// Buffer is a finished recording: mono float32 samples ready for inference.
// It has exactly one owner at every point of its life. The audio worker
// builds it, the machine moves it into a Process command, the transcription
// worker consumes it and lets it go. It is never shared.
type Buffer struct {
	Samples    []float32
	SampleRate uint32
	Channels   uint16

	// SpeechRatio is the fraction of VAD frames that contained voice,
	// in [0,1]. Recordings below the no-speech threshold skip inference.
	SpeechRatio float64
}

func (b Buffer) Empty() bool {
	return len(b.Samples) == 0
}

func (b Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	frames := len(b.Samples) / int(b.Channels)
	return time.Duration(float64(frames) / float64(b.SampleRate) * float64(time.Second))
}
