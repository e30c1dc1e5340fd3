//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	cueStart []int16
	cueEnd   []int16
	cueErr   []int16
	cueOnce  sync.Once
)

func renderCues() {
	cueStart = startTone.synth(0.2, 2)
	cueEnd = endTone.synth(0.2, 2)
	cueErr = errTone.synthDouble(0.08, 0.05, 2)
}

// play opens a short-lived pulse playback stream, drains the cue, and closes.
// A fresh client per cue keeps this independent of the capture connection.
func play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func Init() {
	cueOnce.Do(renderCues)
}

func PlayStart() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	go play(cueStart)
}

func PlayEnd() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	go play(cueEnd)
}

func PlayError() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	go play(cueErr)
}
