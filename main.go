package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"

	"github.com/alantsov/voice-input/app"
	"github.com/alantsov/voice-input/audio"
	"github.com/alantsov/voice-input/beep"
	"github.com/alantsov/voice-input/clipboard"
	"github.com/alantsov/voice-input/config"
	"github.com/alantsov/voice-input/hotkey"
	"github.com/alantsov/voice-input/layout"
	"github.com/alantsov/voice-input/log"
	"github.com/alantsov/voice-input/model"
	"github.com/alantsov/voice-input/shutdown"
	"github.com/alantsov/voice-input/transcriber"
	"github.com/alantsov/voice-input/tray"
)

var version = "dev"

type submitter interface {
	Submit(app.Event) bool
}

// lazySubmitter lets sinks be constructed before the machine exists.
type lazySubmitter struct {
	m *app.Machine
}

func (l *lazySubmitter) Submit(ev app.Event) bool {
	if l.m == nil {
		return false
	}
	return l.m.Submit(ev)
}

// actionSink performs the side effects of finished transcriptions: audio
// cues on phase changes and pasting the text into the focused window.
type actionSink struct {
	autopaste bool
}

func (s *actionSink) Consume(u app.Update) {
	switch v := u.(type) {
	case app.StateChanged:
		switch v.State.Phase {
		case app.PhaseRecording:
			beep.PlayStart()
		case app.PhaseTranscribing:
			beep.PlayEnd()
		case app.PhaseFailed:
			beep.PlayError()
		}
	case app.Transcript:
		if v.NoSpeech || v.Text == "" {
			return
		}
		if s.autopaste {
			if err := clipboard.Insert(v.Text); err != nil {
				log.Errorf("inserting transcript: %v", err)
				if err := clipboard.Copy(v.Text); err != nil {
					log.Errorf("copying transcript: %v", err)
				}
			}
		} else if err := clipboard.Copy(v.Text); err != nil {
			log.Errorf("copying transcript: %v", err)
		}
	}
}

// configSink persists setting changes so the next run starts with them.
type configSink struct {
	path string
	cfg  config.Config
}

func (s *configSink) Consume(u app.Update) {
	switch v := u.(type) {
	case app.ActiveModel:
		if v.Model == s.cfg.SelectedModel {
			return
		}
		s.cfg.SelectedModel = v.Model
	case app.SettingsChanged:
		lang := v.Language
		if v.AutoLanguage {
			lang = ""
		}
		if v.Translate == s.cfg.Translate && lang == s.cfg.Language {
			return
		}
		s.cfg.Translate = v.Translate
		s.cfg.Language = lang
	default:
		return
	}
	if err := config.Save(s.path, s.cfg); err != nil {
		log.Warnf("saving config: %v", err)
	}
}

func pickDevice(ctx audio.Context, setup bool, name string) (*audio.DeviceInfo, error) {
	if setup {
		return audio.SelectDevice(ctx)
	}
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	log.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	var (
		modelFlag     = flag.String("model", "", "whisper model: small, medium or large")
		langFlag      = flag.String("lang", "", "force transcription language (ISO-639-1), empty = detect from keyboard layout")
		translateFlag = flag.Bool("translate", false, "translate non-English speech to English")
		autopasteFlag = flag.Bool("autopaste", true, "paste transcripts into the focused window")
		keepFlag      = flag.Bool("keep", false, "archive recordings as FLAC")
		quietFlag     = flag.Bool("quiet", false, "disable audio cues")
		maxRecFlag    = flag.Duration("maxrec", 5*time.Minute, "recording length bound")
		timeoutFlag   = flag.Duration("timeout", 30*time.Second, "transcription deadline")
		setupFlag     = flag.Bool("setup", false, "interactively pick the input device")
		deviceFlag    = flag.String("device", "", "input device name substring")
		tuiFlag       = flag.Bool("tui", false, "terminal UI instead of the system tray")
		logPathFlag   = flag.String("logpath", "", "log directory (default: XDG state dir)")
		diagnoseFlag  = flag.Bool("diagnose", false, "report hotkey backend availability and exit")
		versionFlag   = flag.Bool("version", false, "print version and exit")
		binFlag       = flag.String("whisper-bin", "", "path to the whisper.cpp binary")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println("voice-input", version)
		return
	}
	if *quietFlag {
		beep.Disable()
	}
	if *diagnoseFlag {
		report, err := hotkey.Diagnose()
		fmt.Println(report)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v, using defaults\n", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.SelectedModel = *modelFlag
		case "lang":
			cfg.Language = *langFlag
		case "translate":
			cfg.Translate = *translateFlag
		case "autopaste":
			cfg.Autopaste = *autopasteFlag
		}
	})
	if !model.Known(cfg.SelectedModel) {
		fatal("unknown model %q (choose from %s)", cfg.SelectedModel, strings.Join(model.Names(), ", "))
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fatal("resolving log directory: %v", err)
	}
	log.SetDir(logDir)
	if err := log.EnsureDir(); err != nil {
		fatal("creating log directory: %v", err)
	}
	if err := log.Init(); err != nil {
		fatal("opening logs: %v", err)
	}
	defer log.Close()
	log.SessionStart(cfg.SelectedModel, cfg.Language)

	lockPath := filepath.Join(xdg.CacheHome, "voice-input", "voice-input.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		fatal("preparing lock: %v", err)
	}
	lock := flock.New(lockPath)
	held, err := lock.TryLock()
	if err != nil {
		fatal("acquiring instance lock: %v", err)
	}
	if !held {
		fmt.Fprintln(os.Stderr, "another voice-input instance is already running")
		return
	}
	defer lock.Unlock()

	audioCtx, err := audio.NewContext()
	if err != nil {
		fatal("audio backend: %v", err)
	}
	defer audioCtx.Close()

	device, err := pickDevice(audioCtx, *setupFlag, *deviceFlag)
	if err != nil {
		fatal("%v", err)
	}
	if device != nil && audio.IsBluetooth(device.Name) {
		log.Warnf("bluetooth microphone %q, capture quality may suffer", device.Name)
	}

	engine, err := transcriber.NewWhisperCPP(*binFlag)
	if err != nil {
		fatal("%v", err)
	}

	archiveDir := ""
	if *keepFlag {
		archiveDir = filepath.Join(xdg.DataHome, "voice-input", "recordings")
	}

	audioCmds := make(chan app.AudioCommand, 4)
	modelCmds := make(chan app.ModelCommand, 4)
	transCmds := make(chan app.TranscriptionCommand, 4)

	detect := layout.DetectLanguage
	if cfg.Language != "" {
		lang := cfg.Language
		detect = func() string { return lang }
	}

	dst := &lazySubmitter{}
	sinks := []app.Sink{
		&actionSink{autopaste: cfg.Autopaste},
		&configSink{path: cfgPath, cfg: cfg},
	}

	if *tuiFlag {
		prog := newTUIProgram(dst, cfg.SelectedModel)
		sinks = append(sinks, &tuiSink{prog: prog})
		machine := buildMachine(cfg, detect, *timeoutFlag, audioCmds, modelCmds, transCmds, sinks)
		dst.m = machine
		startWorkers(machine, engine, audioCtx, device, archiveDir, *maxRecFlag, audioCmds, modelCmds, transCmds)
		go machine.Run()
		if _, err := prog.Run(); err != nil {
			log.Errorf("tui: %v", err)
		}
		machine.Submit(app.Quit{})
		<-machine.Done()
		return
	}

	trayUI := tray.New(dst, cfg.SelectedModel, cfg.Language, cfg.Translate)
	sinks = append(sinks, trayUI)
	machine := buildMachine(cfg, detect, *timeoutFlag, audioCmds, modelCmds, transCmds, sinks)
	dst.m = machine
	startWorkers(machine, engine, audioCtx, device, archiveDir, *maxRecFlag, audioCmds, modelCmds, transCmds)
	go machine.Run()
	trayUI.Run()
	<-machine.Done()
}

func buildMachine(cfg config.Config, detect func() string, timeout time.Duration,
	audioCmds chan app.AudioCommand, modelCmds chan app.ModelCommand,
	transCmds chan app.TranscriptionCommand, sinks []app.Sink) *app.Machine {

	return app.New(app.Config{
		InitialModel:   cfg.SelectedModel,
		Language:       cfg.Language,
		Translate:      cfg.Translate,
		DetectLanguage: detect,
		ProcessTimeout: timeout,
	}, app.Workers{
		Audio:       audioCmds,
		Model:       modelCmds,
		Transcriber: transCmds,
	}, sinks...)
}

func startWorkers(machine *app.Machine, engine transcriber.Engine, audioCtx audio.Context,
	device *audio.DeviceInfo, archiveDir string, maxRec time.Duration,
	audioCmds chan app.AudioCommand, modelCmds chan app.ModelCommand,
	transCmds chan app.TranscriptionCommand) {

	beep.Init()

	go audio.NewWorker(audioCtx, device, audioCmds, machine, audio.WorkerConfig{
		MaxDuration: maxRec,
		ArchiveDir:  archiveDir,
	}).Run()
	go model.NewWorker(modelCmds, machine, model.Dir()).Run()
	go transcriber.NewWorker(engine, transCmds, machine).Run()

	src := hotkey.New()
	if err := src.Register(); err != nil {
		log.Errorf("hotkey: %v", err)
		fmt.Fprintf(os.Stderr, "hotkey registration failed: %v\n", err)
	} else {
		go hotkey.NewRouter(src, machine).Run()
	}

	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	go func() {
		<-sig
		machine.Submit(app.Quit{})
	}()
}
