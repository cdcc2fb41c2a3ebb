package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/audio"
	"parley/beep"
	"parley/clipboard"
	"parley/config"
	"parley/doctor"
	"parley/hotkey"
	"parley/log"
	"parley/room"
	"parley/sidebar"
	"parley/speech"
	"parley/translate"
)

var version = "dev"

func run() int {
	configFlag := flag.String("config", "", "YAML config file (default: $PARLEY_CONFIG)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	langFlag := flag.String("lang", "", "Target language: es, fr, de, it or pt")
	personalFlag := flag.Bool("personal", false, "Join your personal room")
	meetingFlag := flag.String("meeting", "", "Meeting id (default: new random id)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	quietFlag := flag.Bool("quiet", false, "Disable start/stop beeps")
	layoutFlag := flag.String("layout", "", "Room layout: grid, speaker-left or speaker-right")
	noHotkeyFlag := flag.Bool("nohotkey", false, "Disable the global "+hotkey.Combo+" captions toggle")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("parley %s\n", version)
		return 0
	}

	cfg, err := config.Loader{Path: *configFlag}.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if *quietFlag {
		cfg.Quiet = true
	}
	if *layoutFlag != "" {
		cfg.Layout = *layoutFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfg.Quiet {
		beep.Disable()
	}

	if *setupFlag && *deviceFlag == "" {
		if name, err := pickDevice(); err != nil {
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		} else {
			cfg.Device = name
		}
	}

	translator := translate.NewClient(cfg.TranslateURL)

	if *doctorFlag {
		return doctor.Run(doctor.Checks{
			Device:     cfg.Device,
			Translator: translator,
		})
	}

	rec, release, err := speech.Detect(speech.Probe{Device: cfg.Device})
	if err != nil {
		log.Warnf("speech capability unavailable: %v", err)
		rec = nil
	} else {
		defer release()
	}

	sb := sidebar.New(rec, translator, cfg.TargetLanguage())
	defer sb.Unmount()

	meetingID := room.MeetingID(*meetingFlag, cfg.UserID, *personalFlag)
	log.SessionStart(sb.RecognizerName(), cfg.Language, meetingID)

	m := newRoomModel(sb, roomOptions{
		MeetingID: meetingID,
		UserID:    cfg.UserID,
		BaseURL:   cfg.BaseURL,
		Personal:  *personalFlag,
		Layout:    cfg.RoomLayout(),
		CopyLink:  clipboard.Copy,
		Cue:       beep.Play,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if !*noHotkeyFlag {
		unregister, err := watchHotkey(ctx, hotkey.New(), p.Send)
		if err != nil {
			log.Warnf("global hotkey unavailable: %v", err)
		} else {
			defer unregister()
		}
	}

	_, err = p.Run()
	log.SessionEnd(sb.Translations())
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// watchHotkey registers hk and turns each press into a sidebar.ToggleMsg.
// The returned func unregisters the hotkey and ends the watch.
func watchHotkey(ctx context.Context, hk hotkey.Hotkey, send func(tea.Msg)) (func(), error) {
	if err := hk.Register(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	go hotkey.Watch(ctx, hk, func() {
		log.Info("hotkey_toggle")
		send(sidebar.ToggleMsg{})
	})
	return func() {
		cancel()
		hk.Unregister()
	}, nil
}

func pickDevice() (string, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return "", err
	}
	defer actx.Close()
	dev, err := audio.SelectDevice(actx)
	if err != nil {
		return "", err
	}
	return dev.Name, nil
}

// initCrashLog sends Go runtime crash output to crash_log.txt in the log directory.
func initCrashLog() {
	f, err := os.OpenFile(filepath.Join(log.Dir(), "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}
