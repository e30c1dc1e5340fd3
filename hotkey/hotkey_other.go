//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

// xSource registers Ctrl+Shift+Space as a single combination and synthesizes
// modifier plus trigger edges around it, since the backend cannot observe the
// modifier on its own.
type xSource struct {
	hk    *hotkey.Hotkey
	edges chan Edge
}

func New() Source {
	return &xSource{
		hk:    hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		edges: make(chan Edge, 16),
	}
}

func (s *xSource) Register() error {
	if err := s.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			<-s.hk.Keydown()
			s.edges <- Edge{Key: KeyModifier, Press: true}
			s.edges <- Edge{Key: KeyTrigger, Press: true}
		}
	}()
	go func() {
		for {
			<-s.hk.Keyup()
			s.edges <- Edge{Key: KeyTrigger, Press: false}
			s.edges <- Edge{Key: KeyModifier, Press: false}
		}
	}()
	return nil
}

func (s *xSource) Unregister() {
	s.hk.Unregister()
}

func (s *xSource) Edges() <-chan Edge {
	return s.edges
}

func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}
