package hotkey

import (
	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/log"
)

// Submitter accepts events for the state machine.
type Submitter interface {
	Submit(app.Event) bool
}

// Router turns raw key edges into start/stop events. Recording starts when
// the trigger is pressed while the modifier is held, and stops when the
// trigger is released. Releasing the modifier alone never stops a recording,
// so a gesture produces exactly one stop no matter the release order.
type Router struct {
	src  Source
	dst  Submitter
	stop chan struct{}
	done chan struct{}
}

func NewRouter(src Source, dst Submitter) *Router {
	return &Router{
		src:  src,
		dst:  dst,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (r *Router) Run() {
	defer close(r.done)

	var modifierHeld, gestureActive bool

	for {
		select {
		case <-r.stop:
			return
		case e, ok := <-r.src.Edges():
			if !ok {
				return
			}
			switch e.Key {
			case KeyModifier:
				modifierHeld = e.Press
			case KeyTrigger:
				if e.Press && modifierHeld && !gestureActive {
					gestureActive = true
					r.dst.Submit(app.StartRecording{})
				} else if !e.Press && gestureActive {
					gestureActive = false
					r.dst.Submit(app.StopRecording{})
				} else if e.Press {
					log.Infof("trigger press ignored (modifier=%v active=%v)", modifierHeld, gestureActive)
				}
			}
		}
	}
}

func (r *Router) Stop() {
	close(r.stop)
	<-r.done
}
