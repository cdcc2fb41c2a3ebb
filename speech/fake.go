package speech

import "sync"

// Fake is a scripted Recognizer. Tests push events with Emit and inspect
// Start/Stop counts.
type Fake struct {
	StartErr error

	mu     sync.Mutex
	opts   Options
	starts int
	stops  int
	events chan Event
}

func NewFake() *Fake {
	return &Fake{events: make(chan Event, eventBufferSize)}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Configure(opts Options) {
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()
}

func (f *Fake) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

func (f *Fake) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartErr != nil {
		return f.StartErr
	}
	f.starts++
	return nil
}

func (f *Fake) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *Fake) Events() <-chan Event { return f.events }

func (f *Fake) Emit(ev Event) { f.events <- ev }

// Result emits a ResultEvent built from plain transcripts.
func (f *Fake) Result(transcripts ...string) {
	segs := make([]Segment, len(transcripts))
	for i, t := range transcripts {
		segs[i] = Segment{Transcript: t}
	}
	f.Emit(ResultEvent{Segments: segs})
}

func (f *Fake) Counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}
