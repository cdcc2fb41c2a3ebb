// Package doctor runs the -doctor diagnostics: microphone, speech capability,
// translation endpoint, clipboard and the global hotkey.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"parley/audio"
	"parley/clipboard"
	"parley/hotkey"
	"parley/speech"
	"parley/translate"
)

type Translator interface {
	Translate(ctx context.Context, text string, target translate.Language) (*translate.Result, error)
}

type Checks struct {
	Out        io.Writer
	OpenAudio  func() (audio.Context, error)
	Device     string
	Probe      speech.Probe
	Translator Translator
	Clipboard  func(probe string) (string, error)
	Hotkey     func() (string, error)
	RecordFor  time.Duration
}

const translateTimeout = 15 * time.Second

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(c Checks) int {
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.OpenAudio == nil {
		c.OpenAudio = audio.NewContext
	}
	if c.Clipboard == nil {
		c.Clipboard = clipboard.Verify
	}
	if c.Hotkey == nil {
		c.Hotkey = hotkey.Diagnose
	}
	if c.RecordFor <= 0 {
		c.RecordFor = time.Second
	}
	if c.Translator == nil {
		c.Translator = translate.NewClient("")
	}

	fmt.Fprintln(c.Out, "parley doctor - system diagnostics")
	fmt.Fprintln(c.Out, "==================================")

	steps := []struct {
		title string
		run   func(Checks) (string, error)
	}{
		{"Microphone capture", checkMicrophone},
		{"Speech recognition", checkSpeech},
		{"Translation endpoint", checkTranslate},
		{"Clipboard", checkClipboard},
		{"Global hotkey", checkHotkey},
	}

	failed := 0
	for i, step := range steps {
		fmt.Fprintf(c.Out, "\n[%d/%d] %s\n", i+1, len(steps), step.title)
		detail, err := step.run(c)
		if err != nil {
			failed++
			fmt.Fprintf(c.Out, "  FAIL: %v\n", err)
			continue
		}
		fmt.Fprintf(c.Out, "  PASS: %s\n", detail)
	}

	fmt.Fprintln(c.Out)
	if failed > 0 {
		fmt.Fprintf(c.Out, "%d check(s) failed. See details above.\n", failed)
		return 1
	}
	fmt.Fprintln(c.Out, "All checks passed!")
	return 0
}

func checkMicrophone(c Checks) (string, error) {
	actx, err := c.OpenAudio()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	dev, err := audio.FindDevice(actx, c.Device)
	if err != nil {
		return "", err
	}
	pcm, err := record(actx, dev, c.RecordFor)
	if err != nil {
		return "", err
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio captured")
	}
	seconds := float64(len(pcm)) / float64(audio.SampleRate*audio.BytesPerFrame)
	return fmt.Sprintf("captured %.1fs, peak level %.3f", seconds, peakLevel(pcm)), nil
}

func record(actx audio.Context, dev *audio.DeviceInfo, d time.Duration) ([]byte, error) {
	capture, err := actx.NewCapture(dev, audio.DefaultCaptureConfig())
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	var mu sync.Mutex
	var pcm []byte
	capture.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		pcm = append(pcm, data...)
		mu.Unlock()
	})
	if err := capture.Start(); err != nil {
		return nil, err
	}
	time.Sleep(d)
	capture.Stop()
	capture.ClearCallback()

	mu.Lock()
	defer mu.Unlock()
	return pcm, nil
}

// peakLevel is the largest absolute sample, normalized to 0..1.
func peakLevel(pcm []byte) float64 {
	var peak int32
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int32(int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8))
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	return float64(peak) / 32768
}

func checkSpeech(c Checks) (string, error) {
	p := c.Probe
	if p.OpenAudio == nil {
		p.OpenAudio = c.OpenAudio
	}
	if p.Device == "" {
		p.Device = c.Device
	}
	rec, release, err := speech.Detect(p)
	if err != nil {
		return "", err
	}
	defer release()
	return rec.Name() + " recognizer available", nil
}

func checkTranslate(c Checks) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
	defer cancel()

	res, err := c.Translator.Translate(ctx, "hello", translate.Spanish)
	if err != nil {
		return "", err
	}
	_, _, _, total := res.Metrics.Millis()
	detail := fmt.Sprintf("%q -> %q in %.0fms", "hello", res.Text, total)
	if e, ok := c.Translator.(interface{ Endpoint() string }); ok {
		detail += " via " + e.Endpoint()
	}
	return detail, nil
}

func checkClipboard(c Checks) (string, error) {
	return c.Clipboard("parley-doctor-test")
}

func checkHotkey(c Checks) (string, error) {
	return c.Hotkey()
}
