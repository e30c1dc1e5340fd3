package model

import (
	"errors"
	"os"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/log"
)

// Submitter accepts events for the state machine.
type Submitter interface {
	Submit(app.Event) bool
}

// Worker serves model load commands one at a time. A load for the name
// already in flight is dropped; loads for other names queue up in order.
type Worker struct {
	cmds   <-chan app.ModelCommand
	dst    Submitter
	dir    string
	lookup func(name, dir string) ([]Descriptor, error)

	results chan app.Event
	current string
	queue   []app.ModelLoad
}

func NewWorker(cmds <-chan app.ModelCommand, dst Submitter, dir string) *Worker {
	return &Worker{
		cmds:    cmds,
		dst:     dst,
		dir:     dir,
		lookup:  Lookup,
		results: make(chan app.Event, 1),
	}
}

func (w *Worker) Run() {
	for {
		select {
		case cmd := <-w.cmds:
			switch c := cmd.(type) {
			case app.ModelLoad:
				w.accept(c)
			case app.ModelShutdown:
				if c.Ack != nil {
					close(c.Ack)
				}
				return
			}
		case ev := <-w.results:
			w.dst.Submit(ev)
			w.current = ""
			if len(w.queue) > 0 {
				next := w.queue[0]
				w.queue = w.queue[1:]
				w.begin(next)
			}
		}
	}
}

func (w *Worker) accept(cmd app.ModelLoad) {
	if w.current == cmd.Model {
		log.Infof("load of %s already in flight, dropped", cmd.Model)
		return
	}
	if w.current != "" {
		for _, q := range w.queue {
			if q.Model == cmd.Model {
				return
			}
		}
		w.queue = append(w.queue, cmd)
		return
	}
	w.begin(cmd)
}

func (w *Worker) begin(cmd app.ModelLoad) {
	w.current = cmd.Model
	go func() {
		w.results <- w.load(cmd)
	}()
}

// load resolves the artifacts of a logical model, downloading whatever is
// missing, and returns the terminal event.
func (w *Worker) load(cmd app.ModelLoad) app.Event {
	descs, err := w.lookup(cmd.Model, w.dir)
	if err != nil {
		return app.ModelLoadFailed{Model: cmd.Model, Reason: err.Error(), Retryable: false}
	}

	var missing []Descriptor
	var totalBytes int64
	for _, d := range descs {
		if fi, err := os.Stat(d.Path); err == nil && fi.Size() > 0 {
			continue
		}
		missing = append(missing, d)
		totalBytes += d.Size
	}

	var doneBytes int64
	lastOverall := -1
	for _, d := range missing {
		d := d
		err := downloadWithRetry(d, cmd.Cancel, func(pct int) {
			if totalBytes == 0 {
				return
			}
			overall := int((doneBytes + int64(pct)*d.Size/100) * 100 / totalBytes)
			if overall != lastOverall {
				lastOverall = overall
				w.dst.Submit(app.DownloadProgress{Model: cmd.Model, Percent: overall})
			}
		})
		if errors.Is(err, errCanceled) {
			return app.ModelLoadFailed{Model: cmd.Model, Reason: "canceled", Retryable: true}
		}
		if err != nil {
			return app.ModelLoadFailed{Model: cmd.Model, Reason: err.Error(), Retryable: false}
		}
		doneBytes += d.Size
	}

	loaded := app.ModelLoaded{Model: cmd.Model}
	for _, d := range descs {
		if d.English {
			loaded.EnglishPath = d.Path
		} else {
			loaded.MultilingualPath = d.Path
		}
	}
	log.Infof("model_loaded: %s", cmd.Model)
	return loaded
}
