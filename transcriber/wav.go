package transcriber

import (
	"bytes"
	"encoding/binary"
	"math"
)

// wavBytes renders float32 samples as a 16-bit PCM mono WAV file in memory.
func wavBytes(samples []float32, sampleRate uint32) []byte {
	dataSize := len(samples) * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, sampleRate*2) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))    // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))   // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	for _, s := range samples {
		v := int16(math.Round(float64(s) * 32767))
		if s >= 1.0 {
			v = 32767
		} else if s <= -1.0 {
			v = -32768
		}
		binary.Write(&buf, binary.LittleEndian, v)
	}

	return buf.Bytes()
}
