// Package speech exposes continuous speech recognition as an event-driven
// handle: Start and Stop drive capture, and Result, Error and End events
// arrive on a channel that lives as long as the Recognizer.
package speech

import (
	"errors"
	"strings"
)

var (
	// ErrUnsupported means no recognizer can be built in this environment.
	ErrUnsupported = errors.New("speech recognition is not supported")
	// ErrBusy is returned by Start while a previous session is still winding down.
	ErrBusy = errors.New("speech recognizer is still stopping")
)

type Options struct {
	// Continuous keeps capturing after the first final result.
	Continuous bool
	// InterimResults delivers partial segments before they are finalized.
	InterimResults bool
	// Language is a BCP-47 tag for the spoken language.
	Language string
}

type Segment struct {
	Transcript string
	Final      bool
	Confidence float64
}

type Event interface{ isEvent() }

// ResultEvent carries every segment of the current session, finalized ones
// first and the pending interim segment (if any) last.
type ResultEvent struct {
	Segments []Segment
}

type ErrorEvent struct {
	Err error
}

// EndEvent is emitted once per session when capture has stopped, for any reason.
type EndEvent struct{}

func (ResultEvent) isEvent() {}
func (ErrorEvent) isEvent()  {}
func (EndEvent) isEvent()    {}

// Transcript concatenates all segment transcripts in order.
func (r ResultEvent) Transcript() string {
	var b strings.Builder
	for _, s := range r.Segments {
		b.WriteString(s.Transcript)
	}
	return b.String()
}

type Recognizer interface {
	Name() string
	Configure(opts Options)
	Start() error
	// Stop is a no-op when not started. It may return before the End event.
	Stop()
	Events() <-chan Event
}
