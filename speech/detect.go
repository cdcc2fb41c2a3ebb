package speech

import (
	"fmt"
	"os"
	"strings"

	"parley/audio"
	"parley/log"
)

// APIKeyNames are probed in order; the first non-empty value wins.
var APIKeyNames = []string{"DEEPGRAM_API_KEY", "PARLEY_DEEPGRAM_API_KEY"}

type Probe struct {
	Lookup    func(string) (string, bool)
	OpenAudio func() (audio.Context, error)
	Device    string
	Endpoint  string
}

// Detect builds the platform recognizer, or returns ErrUnsupported (wrapped
// with the reason) when the credential or the microphone is missing. The
// release func closes the capture device and audio context; it is nil on error.
func Detect(p Probe) (Recognizer, func(), error) {
	if p.Lookup == nil {
		p.Lookup = os.LookupEnv
	}
	if p.OpenAudio == nil {
		p.OpenAudio = audio.NewContext
	}

	key := ""
	for _, name := range APIKeyNames {
		if v, ok := p.Lookup(name); ok && strings.TrimSpace(v) != "" {
			key = strings.TrimSpace(v)
			break
		}
	}
	if key == "" {
		return nil, nil, fmt.Errorf("%w: set %s", ErrUnsupported, strings.Join(APIKeyNames, " or "))
	}

	actx, err := p.OpenAudio()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	dev, err := audio.FindDevice(actx, p.Device)
	if err != nil {
		log.Warnf("device %q unavailable, using system default: %v", p.Device, err)
		dev = nil
	}
	capture, err := actx.NewCapture(dev, audio.DefaultCaptureConfig())
	if err != nil {
		actx.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	rec := NewDeepgram(key, capture)
	if p.Endpoint != "" {
		rec.Endpoint = p.Endpoint
	}
	release := func() {
		capture.Close()
		actx.Close()
	}
	return rec, release, nil
}
