package hotkey

import (
	"testing"
	"time"

	"github.com/alantsov/voice-input/app"
)

type eventRecorder struct {
	events chan app.Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{events: make(chan app.Event, 16)}
}

func (r *eventRecorder) Submit(e app.Event) bool {
	r.events <- e
	return true
}

func (r *eventRecorder) next(t *testing.T) app.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (r *eventRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event %s", e.Name())
	case <-time.After(50 * time.Millisecond):
	}
}

func startRouter(t *testing.T) (*FakeSource, *eventRecorder) {
	t.Helper()
	src := NewFake()
	rec := newEventRecorder()
	r := NewRouter(src, rec)
	go r.Run()
	t.Cleanup(r.Stop)
	return src, rec
}

func TestGestureStartsAndStops(t *testing.T) {
	src, rec := startRouter(t)

	src.SimPress(KeyModifier)
	src.SimPress(KeyTrigger)
	if _, ok := rec.next(t).(app.StartRecording); !ok {
		t.Fatal("expected start on trigger press")
	}

	src.SimRelease(KeyTrigger)
	if _, ok := rec.next(t).(app.StopRecording); !ok {
		t.Fatal("expected stop on trigger release")
	}
	src.SimRelease(KeyModifier)
	rec.expectNone(t)
}

func TestModifierReleaseFirstStopsOnce(t *testing.T) {
	src, rec := startRouter(t)

	src.SimPress(KeyModifier)
	src.SimPress(KeyTrigger)
	rec.next(t)

	// Modifier released before the trigger: only the trigger release stops.
	src.SimRelease(KeyModifier)
	rec.expectNone(t)

	src.SimRelease(KeyTrigger)
	if _, ok := rec.next(t).(app.StopRecording); !ok {
		t.Fatal("expected stop on trigger release")
	}
	rec.expectNone(t)
}

func TestTriggerWithoutModifierIgnored(t *testing.T) {
	src, rec := startRouter(t)

	src.SimPress(KeyTrigger)
	src.SimRelease(KeyTrigger)
	rec.expectNone(t)
}

func TestRepeatedTriggerPressDebounced(t *testing.T) {
	src, rec := startRouter(t)

	src.SimPress(KeyModifier)
	src.SimPress(KeyTrigger)
	rec.next(t)

	// A second press mid-gesture changes nothing.
	src.SimPress(KeyTrigger)
	rec.expectNone(t)

	src.SimRelease(KeyTrigger)
	if _, ok := rec.next(t).(app.StopRecording); !ok {
		t.Fatal("expected single stop")
	}
}

func TestDoubleTriggerReleaseStopsOnce(t *testing.T) {
	src, rec := startRouter(t)

	src.SimPress(KeyModifier)
	src.SimPress(KeyTrigger)
	rec.next(t)

	src.SimRelease(KeyTrigger)
	if _, ok := rec.next(t).(app.StopRecording); !ok {
		t.Fatal("expected stop on trigger release")
	}
	src.SimRelease(KeyTrigger)
	rec.expectNone(t)
}

func TestGestureCanRepeat(t *testing.T) {
	src, rec := startRouter(t)

	for i := 0; i < 3; i++ {
		src.SimPress(KeyModifier)
		src.SimPress(KeyTrigger)
		if _, ok := rec.next(t).(app.StartRecording); !ok {
			t.Fatalf("round %d: expected start", i)
		}
		src.SimRelease(KeyTrigger)
		if _, ok := rec.next(t).(app.StopRecording); !ok {
			t.Fatalf("round %d: expected stop", i)
		}
		src.SimRelease(KeyModifier)
	}
	rec.expectNone(t)
}
