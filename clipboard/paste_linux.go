//go:build linux

package clipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ioctl requests from linux/uinput.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE
)

// event types from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
)

const (
	keyLeftCtrl = 29
	keyV        = 47
)

const busUSB = 0x03

// virtualKeyboard is the name udev sees for the injected device.
const virtualKeyboard = "voice-input-paste"

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

var (
	kbd     *os.File
	kbdOnce sync.Once
	kbdErr  error
)

func ioctl(f *os.File, req, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

func openUinput() (*os.File, error) {
	for _, path := range []string{"/dev/uinput", "/dev/input/uinput"} {
		if _, err := os.Stat(path); err == nil {
			return os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
		}
	}
	return nil, errors.New("uinput device not found, try: sudo modprobe uinput")
}

func createKeyboard(f *os.File) error {
	if err := ioctl(f, uiSetEvbit, evKey); err != nil {
		return err
	}
	if err := ioctl(f, uiSetEvbit, evSyn); err != nil {
		return err
	}
	// Advertise every standard key so udev classifies the device as a
	// real keyboard rather than a single-button gadget.
	for code := uintptr(0); code < 256; code++ {
		if err := ioctl(f, uiSetKeybit, code); err != nil {
			return err
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], virtualKeyboard)
	dev.ID = inputID{Bustype: busUSB, Vendor: 0x1234, Product: 0x5678, Version: 1}
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		return err
	}
	return ioctl(f, uiDevCreate, 0)
}

// Init creates the virtual keyboard once. The first call pays a short delay
// so the compositor has picked up the new device before any keystroke.
func Init() error {
	kbdOnce.Do(func() {
		f, err := openUinput()
		if err != nil {
			kbdErr = err
			return
		}
		if err := createKeyboard(f); err != nil {
			kbdErr = err
			f.Close()
			return
		}
		kbd = f
		time.Sleep(200 * time.Millisecond)
	})
	return kbdErr
}

func emit(typ, code uint16, value int32) error {
	return binary.Write(kbd, binary.LittleEndian, &inputEvent{Type: typ, Code: code, Value: value})
}

func key(code uint16, pressed int32) error {
	if err := emit(evKey, code, pressed); err != nil {
		return err
	}
	return emit(evSyn, 0, 0)
}

// Paste sends Ctrl+V through the virtual keyboard. Small sleeps between the
// edges give the compositor time to register the modifier state.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	if err := key(keyLeftCtrl, 1); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := key(keyV, 1); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := key(keyV, 0); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	return key(keyLeftCtrl, 0)
}

// Verify creates the virtual keyboard, sends a Ctrl+V keystroke, and reads
// it back from the kernel input layer to confirm delivery.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}

	evdevPath, err := findVirtualKeyboard()
	if err != nil {
		return "", err
	}

	evdev, err := os.Open(evdevPath)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", evdevPath, err)
	}
	defer evdev.Close()

	if err := Paste(); err != nil {
		return "", fmt.Errorf("paste send: %w", err)
	}

	type readback struct {
		ctrl, v bool
		err     error
	}
	ch := make(chan readback, 1)
	go func() {
		buf := make([]byte, 24*32)
		var r readback
		n, err := evdev.Read(buf)
		if err != nil {
			r.err = err
			ch <- r
			return
		}
		for i := 0; i+24 <= n; i += 24 {
			if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
				continue
			}
			switch binary.LittleEndian.Uint16(buf[i+18:]) {
			case keyLeftCtrl:
				r.ctrl = true
			case keyV:
				r.v = true
			}
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading events: %w", r.err)
		}
		if !r.ctrl || !r.v {
			return "", fmt.Errorf("missing events (ctrl=%v, v=%v)", r.ctrl, r.v)
		}
		return fmt.Sprintf("Ctrl+V keystroke verified via %s", evdevPath), nil
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timed out waiting for keystroke events")
	}
}

func findVirtualKeyboard() (string, error) {
	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == virtualKeyboard {
			return filepath.Join("/dev/input", e.Name()), nil
		}
	}
	return "", fmt.Errorf("%s evdev device not found", virtualKeyboard)
}
