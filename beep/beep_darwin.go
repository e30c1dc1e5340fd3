//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	cueStart []byte
	cueEnd   []byte
	cueErr   []byte
	cueOnce  sync.Once

	// Playback cursor, read by the malgo data callback.
	cur    atomic.Pointer[[]byte]
	curPos atomic.Uint32
	playMu sync.Mutex
)

func toBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func renderCues() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}

	cueStart = toBytes(startTone.synth(0.03, 1))
	cueEnd = toBytes(endTone.synth(0.05, 1))
	cueErr = toBytes(errTone.synthDouble(0.08, 0.05, 1))

	if err := initDevice(); err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: feed})
	return err
}

// feed copies the active cue into the output buffer, zero-filling past the
// end. The cue pointer is cleared once fully consumed.
func feed(pOutput, _ []byte, frameCount uint32) {
	samples := cur.Load()
	if samples == nil || len(*samples) == 0 {
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}

	pos := curPos.Load()
	total := uint32(len(*samples))
	want := frameCount * 2
	remaining := total - pos

	if remaining == 0 {
		cur.Store(nil)
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}
	if want > remaining {
		want = remaining
	}

	copy(pOutput[:want], (*samples)[pos:pos+want])
	curPos.Store(pos + want)
	for i := want; i < frameCount*2; i++ {
		pOutput[i] = 0
	}
}

func play(samples []byte) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	if device == nil {
		return
	}

	device.Stop()
	curPos.Store(0)
	cur.Store(&samples)

	if err := device.Start(); err != nil {
		// The device handle goes stale across sleep/wake; rebuild it once.
		device.Uninit()
		if err := initDevice(); err != nil {
			cur.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			cur.Store(nil)
		}
	}
}

func Init() {
	cueOnce.Do(renderCues)
}

func PlayStart() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	play(cueStart)
}

func PlayEnd() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	play(cueEnd)
}

func PlayError() {
	if disabled {
		return
	}
	cueOnce.Do(renderCues)
	play(cueErr)
}
