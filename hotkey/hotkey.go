package hotkey

// Key identifies one of the two keys making up the push-to-talk gesture.
type Key int

const (
	// KeyModifier arms the gesture (Ctrl on linux).
	KeyModifier Key = iota
	// KeyTrigger starts and stops recording while the modifier is held.
	KeyTrigger
)

func (k Key) String() string {
	if k == KeyModifier {
		return "modifier"
	}
	return "trigger"
}

// Edge is a single physical key transition.
type Edge struct {
	Key   Key
	Press bool
}

// Source delivers raw key edges from the platform backend.
type Source interface {
	Register() error
	Unregister()
	Edges() <-chan Edge
}
