// Package encoder archives finished captures as FLAC. The constants double
// as the capture format for the rest of the pipeline.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder consumes fixed-size sample blocks and yields the encoded stream
// after Close.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}
