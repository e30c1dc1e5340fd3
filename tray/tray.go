// Package tray shows pipeline status in the system tray and feeds menu
// actions back into the state machine.
package tray

import (
	"fmt"

	"fyne.io/systray"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/log"
	"github.com/alantsov/voice-input/model"
)

// Submitter accepts events for the state machine.
type Submitter interface {
	Submit(app.Event) bool
}

type language struct {
	code  string
	label string
}

var languages = []language{
	{"", "Auto-detect"},
	{"en", "English"},
	{"de", "German"},
	{"fr", "French"},
	{"es", "Spanish"},
	{"it", "Italian"},
	{"ru", "Russian"},
}

// Tray is an update sink rendered as a systray menu. Consume may be called
// from the machine's sink goroutine; all menu mutation happens on the tray
// loop goroutine.
type Tray struct {
	dst     Submitter
	updates chan app.Update

	activeModel string
	language    string
	translate   bool

	status     *systray.MenuItem
	modelItems map[string]*systray.MenuItem
	langItems  map[string]*systray.MenuItem
	transItem  *systray.MenuItem
	quitItem   *systray.MenuItem
}

func New(dst Submitter, activeModel, lang string, translate bool) *Tray {
	return &Tray{
		dst:         dst,
		updates:     make(chan app.Update, 64),
		activeModel: activeModel,
		language:    lang,
		translate:   translate,
		modelItems:  map[string]*systray.MenuItem{},
		langItems:   map[string]*systray.MenuItem{},
	}
}

func (t *Tray) Consume(u app.Update) {
	select {
	case t.updates <- u:
	default:
		log.Warn("tray update dropped")
	}
}

// Run blocks until the tray is quit. It must run on the main goroutine on
// platforms that require it.
func (t *Tray) Run() {
	systray.Run(t.onReady, nil)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconLoading)
	systray.SetTooltip("voice-input")

	t.status = systray.AddMenuItem("Loading model...", "")
	t.status.Disable()
	systray.AddSeparator()

	modelMenu := systray.AddMenuItem("Model", "")
	for _, name := range model.Names() {
		item := modelMenu.AddSubMenuItemCheckbox(name, "", name == t.activeModel)
		t.modelItems[name] = item
	}

	langMenu := systray.AddMenuItem("Language", "")
	for _, l := range languages {
		item := langMenu.AddSubMenuItemCheckbox(l.label, "", l.code == t.language)
		t.langItems[l.code] = item
	}

	t.transItem = systray.AddMenuItemCheckbox("Translate to English", "", t.translate)
	systray.AddSeparator()
	t.quitItem = systray.AddMenuItem("Quit", "")

	go t.loop()
}

func (t *Tray) loop() {
	clicks := make(chan app.Event, 8)
	for name, item := range t.modelItems {
		name, item := name, item
		go func() {
			for range item.ClickedCh {
				clicks <- app.ChangeModel{Model: name}
			}
		}()
	}
	for code, item := range t.langItems {
		code, item := code, item
		go func() {
			for range item.ClickedCh {
				clicks <- app.SetLanguage{Code: code}
			}
		}()
	}

	for {
		select {
		case u := <-t.updates:
			t.render(u)
		case ev := <-clicks:
			switch e := ev.(type) {
			case app.ChangeModel:
				t.dst.Submit(e)
			case app.SetLanguage:
				t.dst.Submit(e)
			}
		case <-t.transItem.ClickedCh:
			// The check mark follows the SettingsChanged echo, not the click.
			t.dst.Submit(app.SetTranslate{Enabled: !t.translate})
		case <-t.quitItem.ClickedCh:
			t.dst.Submit(app.Quit{})
			systray.Quit()
			return
		}
	}
}

func (t *Tray) render(u app.Update) {
	switch v := u.(type) {
	case app.StateChanged:
		t.renderState(v.State)
	case app.Progress:
		if item, ok := t.modelItems[v.Model]; ok {
			if v.Percent >= 100 {
				item.SetTitle(v.Model)
			} else {
				item.SetTitle(fmt.Sprintf("%s (downloading %d%%)", v.Model, v.Percent))
			}
		}
	case app.ActiveModel:
		t.activeModel = v.Model
		for name, item := range t.modelItems {
			item.SetTitle(name)
			if name == v.Model {
				item.Check()
			} else {
				item.Uncheck()
			}
		}
	case app.SettingsChanged:
		t.translate = v.Translate
		if v.Translate {
			t.transItem.Check()
		} else {
			t.transItem.Uncheck()
		}
		t.language = v.Language
		if v.AutoLanguage {
			t.language = ""
		}
		t.checkLanguage(t.language)
	case app.Err:
		t.status.SetTitle(v.Message)
	}
}

func (t *Tray) renderState(s app.State) {
	switch s.Phase {
	case app.PhaseLoadingModel:
		systray.SetIcon(iconLoading)
		t.status.SetTitle("Loading model...")
	case app.PhaseReady:
		systray.SetIcon(iconIdle)
		t.status.SetTitle("Ready")
	case app.PhaseRecording:
		systray.SetIcon(iconRec)
		t.status.SetTitle("Recording...")
	case app.PhaseTranscribing:
		systray.SetIcon(iconBusy)
		t.status.SetTitle("Transcribing...")
	case app.PhaseFailed:
		systray.SetIcon(iconWarn)
		if s.Message != "" {
			t.status.SetTitle("Error: " + s.Message)
		} else {
			t.status.SetTitle("Error")
		}
	case app.PhaseShutdown:
		systray.Quit()
	}
}

func (t *Tray) checkLanguage(code string) {
	for c, item := range t.langItems {
		if c == code {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}
