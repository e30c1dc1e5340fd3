// Package beep plays short audio cues at recording start, end, and failure.
package beep

import "math"

var disabled bool

// Disable turns all cues into no-ops.
func Disable() { disabled = true }

const sampleRate = 44100

// tone describes one synthesized cue. Durations are chosen per platform
// since coreaudio adds noticeable startup latency to very short buffers.
type tone struct {
	freq   float64
	volume float64
	decay  float64
}

var (
	startTone = tone{freq: 1200, volume: 0.5, decay: 60}
	endTone   = tone{freq: 900, volume: 0.5, decay: 40}
	errTone   = tone{freq: 350, volume: 0.6, decay: 30}
)

// synth renders dur seconds of the tone as interleaved s16 frames with an
// exponential decay envelope.
func (t tone) synth(dur float64, channels int) []int16 {
	n := int(sampleRate * dur)
	out := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		ts := float64(i) / sampleRate
		env := math.Exp(-ts * t.decay)
		s := int16(math.Sin(2*math.Pi*t.freq*ts) * 32767 * t.volume * env)
		for c := 0; c < channels; c++ {
			out[i*channels+c] = s
		}
	}
	return out
}

// synthDouble renders two copies of the tone separated by a gap of silence.
func (t tone) synthDouble(beepDur, gapDur float64, channels int) []int16 {
	b := t.synth(beepDur, channels)
	gap := make([]int16, int(sampleRate*gapDur)*channels)
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	out = append(out, b...)
	return out
}
