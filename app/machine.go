package app

import (
	"strings"
	"sync"
	"time"

	"github.com/alantsov/voice-input/log"
)

// Config tunes the machine. Zero values pick the defaults below.
type Config struct {
	InitialModel string
	Language     string // static language code; "" means detect per recording
	Translate    bool

	// DetectLanguage, when set, runs once per accepted StartRecording on its
	// own goroutine; the result arrives as a LanguageDetected event.
	DetectLanguage func() string

	LoadTimeout    time.Duration // deadline for a model load/download
	ProcessTimeout time.Duration // deadline for one inference run
	TickEvery      time.Duration // deadline polling interval
	DrainTimeout   time.Duration // bound on waiting for workers at shutdown
}

const (
	defaultLoadTimeout    = 15 * time.Minute
	defaultProcessTimeout = 30 * time.Second
	defaultTickEvery      = 100 * time.Millisecond
	defaultDrainTimeout   = 3 * time.Second

	sinkQueueSize = 16
)

// Workers are the command channels into the three worker goroutines. The
// machine is their only producer.
type Workers struct {
	Audio       chan<- AudioCommand
	Model       chan<- ModelCommand
	Transcriber chan<- TranscriptionCommand
}

// Machine is the sole authority over State. Submit enqueues an event and
// returns; processing happens on the machine's own goroutine, one event at
// a time in arrival order, except Quit which preempts the queue.
type Machine struct {
	cfg     Config
	workers Workers

	in   chan Event
	out  chan Event
	quit chan struct{}
	done chan struct{}

	quitOnce sync.Once
	sinks    []*sinkRunner

	// Everything below is owned by the run goroutine.
	state         State
	language      string
	autoLanguage  bool
	translate     bool
	activeModel   string
	englishPath   string
	multiPath     string
	deferredStart bool
	transcripts   int

	modelPending  bool
	pendingModel  string
	modelDeadline time.Time
	modelCancel   chan struct{}

	procPending  bool
	procDeadline time.Time
	procCancel   chan struct{}

	now func() time.Time
}

// New builds a machine wired to the given workers and sinks. Call Run to
// start it.
func New(cfg Config, workers Workers, sinks ...Sink) *Machine {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = defaultProcessTimeout
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = defaultTickEvery
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	m := &Machine{
		cfg:          cfg,
		workers:      workers,
		in:           make(chan Event, 64),
		out:          make(chan Event),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		state:        State{Phase: PhaseLoadingModel},
		language:     lang,
		autoLanguage: cfg.DetectLanguage != nil,
		translate:    cfg.Translate,
		now:          time.Now,
	}
	for _, s := range sinks {
		m.sinks = append(m.sinks, newSinkRunner(s))
	}
	return m
}

// Submit enqueues an event. It never blocks the caller beyond the handoff
// to the intake pump and is safe from any goroutine. Events submitted after
// shutdown are dropped; Submit reports whether the event was accepted.
func (m *Machine) Submit(ev Event) bool {
	select {
	case m.in <- ev:
		return true
	case <-m.done:
		return false
	}
}

// Done closes once the machine has fully shut down.
func (m *Machine) Done() <-chan struct{} { return m.done }

// Run processes events until a Quit event arrives. It issues the initial
// model load before consuming anything.
func (m *Machine) Run() {
	go m.pump()

	m.activeModel = m.cfg.InitialModel
	m.pendingModel = m.cfg.InitialModel
	m.modelCancel = make(chan struct{})
	m.modelPending = true
	m.modelDeadline = m.now().Add(m.cfg.LoadTimeout)
	m.workers.Model <- ModelLoad{Model: m.pendingModel, Cancel: m.modelCancel}
	m.emit(StateChanged{State: m.state})

	ticker := time.NewTicker(m.cfg.TickEvery)
	defer ticker.Stop()

	for {
		// Quit preempts anything still queued.
		select {
		case <-m.quit:
			m.shutdown()
			return
		default:
		}

		select {
		case <-m.quit:
			m.shutdown()
			return
		case ev := <-m.out:
			m.handle(ev)
		case <-ticker.C:
			m.checkDeadlines()
		}
	}
}

// pump moves events from the intake channel to the processing channel
// through an unbounded queue, so Submit never blocks on a busy machine.
// Quit is not queued: it trips the quit channel immediately.
func (m *Machine) pump() {
	var queue []Event
	for {
		var out chan Event
		var next Event
		if len(queue) > 0 {
			out = m.out
			next = queue[0]
		}
		select {
		case ev := <-m.in:
			if _, isQuit := ev.(Quit); isQuit {
				m.quitOnce.Do(func() { close(m.quit) })
				continue
			}
			queue = append(queue, ev)
		case out <- next:
			queue = queue[1:]
		case <-m.done:
			return
		}
	}
}

func (m *Machine) setState(next State, evName string) {
	log.Transition(m.state.String(), evName, next.String())
	m.state = next
	m.emit(StateChanged{State: next})
}

func (m *Machine) ignore(ev Event, why string) {
	log.Infof("ignoring %s in %s: %s", ev.Name(), m.state.String(), why)
}

func (m *Machine) handle(ev Event) {
	// Events meaningful in any phase.
	switch e := ev.(type) {
	case DownloadProgress:
		m.emit(Progress{Model: e.Model, Percent: e.Percent})
		return
	case LanguageDetected:
		// Detection results never override an explicit user choice.
		if m.autoLanguage && e.Code != "" {
			m.language = e.Code
		}
		return
	case SetLanguage:
		if e.Code == "" {
			m.autoLanguage = m.cfg.DetectLanguage != nil
		} else {
			m.language = e.Code
			m.autoLanguage = false
		}
		m.emitSettings()
		return
	case SetTranslate:
		m.translate = e.Enabled
		m.emitSettings()
		return
	case RecordingWarning:
		m.emit(Err{Message: e.Message})
		return
	}

	if m.state.Phase == PhaseFailed && !m.state.Recoverable {
		m.ignore(ev, "unrecoverable failure, restart required")
		return
	}

	switch e := ev.(type) {
	case ModelLoaded:
		m.handleModelLoaded(e)
	case ModelLoadFailed:
		m.handleModelLoadFailed(e)
	case StartRecording:
		m.handleStartRecording(e)
	case StopRecording:
		m.handleStopRecording(e)
	case AudioCaptured:
		m.handleAudioCaptured(e)
	case RecordingLost:
		m.handleRecordingLost(e)
	case RecordingEmpty:
		m.handleRecordingEmpty(e)
	case TranscriptionDone:
		m.handleTranscriptionDone(e)
	case TranscriptionFailed:
		m.handleTranscriptionFailed(e)
	case ChangeModel:
		m.handleChangeModel(e)
	case LoadModel:
		m.handleLoadModel(e)
	default:
		m.ignore(ev, "unhandled event type")
	}
}

func (m *Machine) handleModelLoaded(e ModelLoaded) {
	if !m.modelPending || m.state.Phase != PhaseLoadingModel {
		m.ignore(e, "no model load outstanding")
		return
	}
	m.modelPending = false
	m.activeModel = e.Model
	m.englishPath = e.EnglishPath
	m.multiPath = e.MultilingualPath
	log.Infof("model_loaded: %s", e.Model)
	m.emit(ActiveModel{Model: e.Model})
	m.setState(State{Phase: PhaseReady}, e.Name())
	m.replayDeferredStart()
}

func (m *Machine) handleModelLoadFailed(e ModelLoadFailed) {
	if !m.modelPending || m.state.Phase != PhaseLoadingModel {
		m.ignore(e, "no model load outstanding")
		return
	}
	m.modelPending = false
	m.emit(Err{Message: "model " + e.Model + ": " + e.Reason})
	m.setState(State{Phase: PhaseFailed, Recoverable: true, Message: e.Reason}, e.Name())
}

func (m *Machine) handleStartRecording(e StartRecording) {
	switch m.state.Phase {
	case PhaseReady:
		if m.autoLanguage && m.cfg.DetectLanguage != nil {
			detect := m.cfg.DetectLanguage
			go func() { m.Submit(LanguageDetected{Code: detect()}) }()
		}
		m.setState(State{Phase: PhaseRecording}, e.Name())
		m.workers.Audio <- AudioStart{}
	case PhaseRecording:
		m.ignore(e, "duplicate start")
	case PhaseTranscribing:
		// Replayed once the machine is back in ready.
		m.deferredStart = true
		log.Info("deferring start_recording until transcription finishes")
	case PhaseFailed:
		m.emit(Err{Message: "not ready: " + m.state.Message})
		m.ignore(e, "not ready")
	default:
		m.ignore(e, "not ready")
	}
}

func (m *Machine) handleStopRecording(e StopRecording) {
	switch m.state.Phase {
	case PhaseRecording:
		m.setState(State{Phase: PhaseTranscribing}, e.Name())
		m.workers.Audio <- AudioStop{}
	default:
		// A stop that belongs to a still-deferred start cancels it; replaying
		// the start alone would leave a recording nobody will ever stop.
		if m.deferredStart {
			m.deferredStart = false
			log.Info("deferred start_recording cancelled by its stop")
			return
		}
		m.ignore(e, "stray stop")
	}
}

func (m *Machine) handleAudioCaptured(e AudioCaptured) {
	switch m.state.Phase {
	case PhaseRecording:
		// The worker stopped on its own (buffer bound reached).
		m.setState(State{Phase: PhaseTranscribing}, e.Name())
		m.sendProcess(e.Buffer)
	case PhaseTranscribing:
		m.sendProcess(e.Buffer)
	default:
		m.ignore(e, "no recording in flight")
	}
}

func (m *Machine) sendProcess(buf Buffer) {
	path := m.multiPath
	if strings.HasPrefix(m.language, "en") && m.englishPath != "" {
		path = m.englishPath
	}
	m.procCancel = make(chan struct{})
	m.procPending = true
	m.procDeadline = m.now().Add(m.cfg.ProcessTimeout)
	m.workers.Transcriber <- Process{
		Buffer:    buf,
		Language:  m.language,
		ModelPath: path,
		Translate: m.translate,
		Cancel:    m.procCancel,
	}
}

func (m *Machine) handleRecordingLost(e RecordingLost) {
	switch m.state.Phase {
	case PhaseRecording, PhaseTranscribing:
		m.emit(Err{Message: "recording stopped: " + e.Reason})
		m.setState(State{Phase: PhaseReady}, e.Name())
		m.replayDeferredStart()
	default:
		m.ignore(e, "no recording in flight")
	}
}

func (m *Machine) handleRecordingEmpty(e RecordingEmpty) {
	switch m.state.Phase {
	case PhaseRecording, PhaseTranscribing:
		m.emit(Err{Message: "nothing recorded"})
		m.setState(State{Phase: PhaseReady}, e.Name())
		m.replayDeferredStart()
	default:
		m.ignore(e, "no recording in flight")
	}
}

func (m *Machine) handleTranscriptionDone(e TranscriptionDone) {
	if m.state.Phase != PhaseTranscribing || !m.procPending {
		m.ignore(e, "no transcription outstanding")
		return
	}
	m.procPending = false
	if !e.NoSpeech {
		m.transcripts++
		log.TranscriptionText(e.Text)
	}
	m.emit(Transcript{Text: e.Text, NoSpeech: e.NoSpeech})
	m.setState(State{Phase: PhaseReady}, e.Name())
	m.replayDeferredStart()
}

func (m *Machine) handleTranscriptionFailed(e TranscriptionFailed) {
	if m.state.Phase != PhaseTranscribing || !m.procPending {
		m.ignore(e, "no transcription outstanding")
		return
	}
	m.procPending = false
	m.emit(Err{Message: "transcription failed: " + e.Reason})
	m.setState(State{Phase: PhaseFailed, Recoverable: true, Message: e.Reason}, e.Name())
}

func (m *Machine) handleChangeModel(e ChangeModel) {
	if m.state.Phase != PhaseReady {
		m.ignore(e, "model change allowed only while ready")
		return
	}
	if e.Model == m.activeModel {
		return
	}
	m.requestLoad(e.Model, e.Name())
}

func (m *Machine) handleLoadModel(e LoadModel) {
	if m.state.Phase != PhaseFailed || !m.state.Recoverable {
		m.ignore(e, "load allowed only from a recoverable failure")
		return
	}
	m.requestLoad(e.Model, e.Name())
}

func (m *Machine) requestLoad(model, evName string) {
	m.pendingModel = model
	m.modelCancel = make(chan struct{})
	m.modelPending = true
	m.modelDeadline = m.now().Add(m.cfg.LoadTimeout)
	m.setState(State{Phase: PhaseLoadingModel}, evName)
	m.workers.Model <- ModelLoad{Model: model, Cancel: m.modelCancel}
}

func (m *Machine) replayDeferredStart() {
	if m.deferredStart && m.state.Phase == PhaseReady {
		m.deferredStart = false
		log.Info("replaying deferred start_recording")
		m.handle(StartRecording{})
	}
}

// checkDeadlines synthesizes failure events for expired operations and
// signals the worker to abandon the work. A worker result landing after
// this point finds no pending operation and is dropped.
func (m *Machine) checkDeadlines() {
	now := m.now()
	if m.procPending && now.After(m.procDeadline) {
		log.Warn("transcription deadline expired")
		close(m.procCancel)
		m.handle(TranscriptionFailed{Reason: "timeout"})
	}
	if m.modelPending && now.After(m.modelDeadline) {
		log.Warn("model load deadline expired")
		close(m.modelCancel)
		m.handle(ModelLoadFailed{Model: m.pendingModel, Reason: "timeout", Retryable: true})
	}
}

// shutdown cancels any in-flight work, sends Shutdown to every worker
// exactly once, waits for their acks up to DrainTimeout, flushes the sinks
// and releases Done. Calling it again (a second Quit) is a no-op because
// the run loop has already returned.
func (m *Machine) shutdown() {
	log.Transition(m.state.String(), "quit", "shutdown")
	m.state = State{Phase: PhaseShutdown}
	m.emit(StateChanged{State: m.state})

	if m.procPending {
		close(m.procCancel)
		m.procPending = false
	}
	if m.modelPending {
		close(m.modelCancel)
		m.modelPending = false
	}

	audioAck := make(chan struct{})
	modelAck := make(chan struct{})
	transAck := make(chan struct{})
	m.workers.Audio <- AudioShutdown{Ack: audioAck}
	m.workers.Model <- ModelShutdown{Ack: modelAck}
	m.workers.Transcriber <- TranscriberShutdown{Ack: transAck}

	deadline := time.After(m.cfg.DrainTimeout)
	for _, ack := range []chan struct{}{audioAck, modelAck, transAck} {
		select {
		case <-ack:
		case <-deadline:
			log.Warn("worker drain timed out")
			deadline = closedChan
		}
	}

	for _, s := range m.sinks {
		s.close()
	}
	log.SessionEnd(m.transcripts)
	close(m.done)
}

// closedChan makes the remaining drain waits fall through immediately once
// the deadline has fired.
var closedChan = func() chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}()

func (m *Machine) emitSettings() {
	m.emit(SettingsChanged{
		Language:     m.language,
		AutoLanguage: m.autoLanguage,
		Translate:    m.translate,
	})
}

func (m *Machine) emit(u Update) {
	for _, s := range m.sinks {
		s.send(u)
	}
}

// sinkRunner feeds one sink from a bounded queue on its own goroutine.
// When the queue is full the oldest pending update is dropped; the machine
// never blocks on a slow sink.
type sinkRunner struct {
	sink Sink
	ch   chan Update
	done chan struct{}
}

func newSinkRunner(s Sink) *sinkRunner {
	r := &sinkRunner{
		sink: s,
		ch:   make(chan Update, sinkQueueSize),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for u := range r.ch {
			r.sink.Consume(u)
		}
	}()
	return r
}

func (r *sinkRunner) send(u Update) {
	select {
	case r.ch <- u:
		return
	default:
	}
	// Queue full: sacrifice the oldest pending update.
	select {
	case old := <-r.ch:
		log.Warnf("sink overflow, dropping %T", old)
	default:
	}
	select {
	case r.ch <- u:
	default:
	}
}

func (r *sinkRunner) close() {
	close(r.ch)
	<-r.done
}
