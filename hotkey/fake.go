package hotkey

type FakeSource struct {
	edges chan Edge
}

func NewFake() *FakeSource {
	return &FakeSource{edges: make(chan Edge, 16)}
}

func (f *FakeSource) Register() error    { return nil }
func (f *FakeSource) Unregister()        {}
func (f *FakeSource) Edges() <-chan Edge { return f.edges }

func (f *FakeSource) Sim(e Edge) { f.edges <- e }

func (f *FakeSource) SimPress(k Key)   { f.edges <- Edge{Key: k, Press: true} }
func (f *FakeSource) SimRelease(k Key) { f.edges <- Edge{Key: k, Press: false} }
