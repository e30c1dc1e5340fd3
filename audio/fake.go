package audio

import (
	"errors"
	"sync"
)

// FakeContext hands out FakeCapture devices fed from a fixed PCM slice.
// Tests drive delivery explicitly with Feed, so nothing here is timed.
type FakeContext struct {
	pcm       []byte
	failOpen  bool
	failStart bool

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FailNextOpen makes the next NewCapture call fail.
func (f *FakeContext) FailNextOpen() { f.failOpen = true }

// FailNextStart makes the next capture's Start fail.
func (f *FakeContext) FailNextStart() { f.failStart = true }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.failOpen {
		f.failOpen = false
		return nil, errors.New("device unavailable")
	}
	c := &FakeCapture{pcm: f.pcm, failStart: f.failStart}
	f.failStart = false
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// Last returns the most recently created capture.
func (f *FakeContext) Last() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

type FakeCapture struct {
	pcm       []byte
	failStart bool

	mu      sync.Mutex
	cb      DataCallback
	started bool
	closed  bool
}

func (c *FakeCapture) Start() error {
	if c.failStart {
		return errors.New("device lost")
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string { return "fake" }

// HasCallback reports whether the worker has installed its data callback.
func (c *FakeCapture) HasCallback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cb != nil
}

func (c *FakeCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Feed pushes n bytes of the canned PCM through the callback, 16-bit mono.
func (c *FakeCapture) Feed(n int) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb == nil {
		return
	}
	if n > len(c.pcm) {
		n = len(c.pcm)
	}
	chunk := make([]byte, n)
	copy(chunk, c.pcm[:n])
	cb(chunk, uint32(n/2))
}

// FeedAll pushes the entire canned PCM through the callback.
func (c *FakeCapture) FeedAll() {
	c.Feed(len(c.pcm))
}
