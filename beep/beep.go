// Package beep plays the short cues for listening start/stop and failures.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueError
)

const (
	sampleRate = 44100

	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// low double beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	cues     map[Cue][]int16
	cuesOnce sync.Once
)

func loadCues() {
	cues = map[Cue][]int16{
		CueStart: tone(startFreq, tailSeconds, startVolume, startDecay),
		CueStop:  tone(stopFreq, tailSeconds, stopVolume, stopDecay),
		CueError: doubleTone(errorFreq, 0.08, 0.05, errorVolume, errorDecay),
	}
}

func samples(c Cue) []int16 {
	cuesOnce.Do(loadCues)
	return cues[c]
}

// Play queues the cue and returns immediately.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	s := samples(c)
	if len(s) == 0 {
		return
	}
	go play(s)
}

func PlayStart() { Play(CueStart) }
func PlayStop()  { Play(CueStop) }
func PlayError() { Play(CueError) }

// tone is a decaying sine, interleaved stereo.
func tone(freq, seconds, volume, decay float64) []int16 {
	n := int(sampleRate * seconds)
	out := make([]int16, n*2)
	for i := range n {
		t := float64(i) / sampleRate
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * math.Exp(-t*decay))
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func doubleTone(freq, beepSeconds, gapSeconds, volume, decay float64) []int16 {
	b := tone(freq, beepSeconds, volume, decay)
	gap := make([]int16, int(sampleRate*gapSeconds)*2)
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}
