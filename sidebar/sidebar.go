// Package sidebar is the live caption and translate panel of the room screen.
//
// All methods run on the Bubble Tea update goroutine. The recognizer reaches
// the sidebar only through EventMsg values produced by the listen command, and
// translations come back as TranslatedMsg.
package sidebar

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"

	"parley/log"
	"parley/speech"
	"parley/translate"
)

const (
	MsgUnsupported      = "Speech recognition is not supported in this environment."
	MsgRecognitionError = "Speech recognition error. Please try again."
	MsgEmptyInput       = "Please speak something before translating."
	msgTranslateFailed  = "Translation failed: "
)

type Translator interface {
	Translate(ctx context.Context, text string, target translate.Language) (*translate.Result, error)
}

type Sidebar struct {
	rec        speech.Recognizer
	translator Translator
	keys       KeyMap
	spin       spinner.Model

	mounted   bool
	unmounted bool
	disabled  bool
	listening bool
	expanded  bool

	lang        translate.Language
	transcript  string
	translation string
	errMsg      string

	seq          uint64 // last issued translation request
	applied      uint64 // newest request whose response was applied
	inFlight     int
	translations int
}

// New builds an unmounted sidebar. rec may be nil when no speech capability
// was detected; the sidebar then reports it as unsupported on Mount.
func New(rec speech.Recognizer, tr Translator, lang translate.Language) *Sidebar {
	if _, ok := translate.ParseLanguage(string(lang)); !ok {
		lang = translate.Spanish
	}
	return &Sidebar{
		rec:        rec,
		translator: tr,
		keys:       DefaultKeyMap(),
		spin:       spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		lang:       lang,
	}
}

// Mount configures the recognizer for continuous capture with interim
// results. The capability is probed once; a missing one disables the capture
// controls until the sidebar is rebuilt.
func (s *Sidebar) Mount() {
	if s.mounted {
		return
	}
	s.mounted = true
	if s.rec == nil {
		s.disabled = true
		s.errMsg = MsgUnsupported
		return
	}
	s.rec.Configure(speech.Options{Continuous: true, InterimResults: true, Language: translate.SourceLanguage})
}

// Unmount stops the recognizer if one exists. Safe to call more than once;
// only the first call has an effect.
func (s *Sidebar) Unmount() {
	if s.unmounted {
		return
	}
	s.unmounted = true
	if s.rec != nil {
		s.rec.Stop()
	}
	s.listening = false
}

// Toggle flips between idle and listening.
func (s *Sidebar) Toggle() {
	if s.unmounted {
		return
	}
	if s.disabled || s.rec == nil {
		s.errMsg = MsgUnsupported
		return
	}
	if s.listening {
		s.rec.Stop()
		s.listening = false
		return
	}
	if err := s.rec.Start(); err != nil {
		log.Errorf("speech start: %v", err)
		s.errMsg = MsgRecognitionError
		return
	}
	s.errMsg = ""
	s.listening = true
}

// HandleEvent applies one recognizer event and reports whether it moved the
// sidebar from listening to idle.
func (s *Sidebar) HandleEvent(ev speech.Event) bool {
	switch ev := ev.(type) {
	case speech.ResultEvent:
		s.transcript = ev.Transcript()
	case speech.ErrorEvent:
		if ev.Err != nil {
			log.Warnf("speech error event: %v", ev.Err)
		}
		s.errMsg = MsgRecognitionError
		return s.idle()
	case speech.EndEvent:
		return s.idle()
	}
	return false
}

func (s *Sidebar) idle() bool {
	if !s.listening {
		return false
	}
	s.listening = false
	return true
}

// request is one issued translation.
type request struct {
	seq  uint64
	text string
	lang translate.Language
}

// beginTranslate validates the buffer and assigns the next sequence number.
func (s *Sidebar) beginTranslate() (request, bool) {
	if s.transcript == "" {
		s.errMsg = MsgEmptyInput
		return request{}, false
	}
	s.seq++
	s.inFlight++
	return request{seq: s.seq, text: s.transcript, lang: s.lang}, true
}

// completeTranslate applies a response. Whatever arrives last wins, even when
// it answers an older request.
func (s *Sidebar) completeTranslate(msg TranslatedMsg) {
	if s.inFlight > 0 {
		s.inFlight--
	}
	if msg.Seq < s.applied {
		log.Warnf("translation_out_of_order: seq=%d applied=%d", msg.Seq, s.applied)
	}
	s.applied = msg.Seq

	entry := log.TranslationEntry{Seq: msg.Seq, Lang: msg.Lang.Code(), Chars: msg.Chars, Err: msg.Err}
	if msg.Result != nil {
		entry.HTTPStatus = msg.Result.HTTPStatus
		if m := msg.Result.Metrics; m != nil {
			entry.Host, entry.LangPair = m.Host, m.LangPair
			entry.ConnReused = m.ConnReused
			entry.DNSMs, entry.TLSMs, entry.TTFBMs, entry.TotalMs = m.Millis()
		}
	}
	log.Translation(entry)

	if msg.Err == nil && msg.Result == nil {
		msg.Err = translate.ErrUnknown
	}
	if msg.Err != nil {
		s.errMsg = msgTranslateFailed + describe(msg.Err)
		return
	}
	s.translations++
	s.translation = msg.Result.Text
	s.errMsg = ""
	log.Caption(msg.Lang.Code(), msg.Text, msg.Result.Text)
}

// describe renders a translate error the way the panel shows it.
func describe(err error) string {
	var httpErr *translate.HTTPError
	var statusErr *translate.StatusError
	var urlErr *url.Error
	switch {
	case errors.As(err, &httpErr):
		return "HTTP error! status: " + strconv.Itoa(httpErr.StatusCode)
	case errors.As(err, &statusErr):
		return statusErr.Status
	case errors.Is(err, translate.ErrUnknown):
		return "Unknown translation error"
	case errors.As(err, &urlErr):
		return urlErr.Err.Error()
	}
	return err.Error()
}

func (s *Sidebar) SetLanguage(lang translate.Language) bool {
	if _, ok := translate.ParseLanguage(string(lang)); !ok {
		return false
	}
	s.lang = lang
	return true
}

func (s *Sidebar) CycleLanguage() { s.lang = s.lang.Next() }

func (s *Sidebar) ToggleExpanded() { s.expanded = !s.expanded }

func (s *Sidebar) Listening() bool               { return s.listening }
func (s *Sidebar) Disabled() bool                { return s.disabled }
func (s *Sidebar) Expanded() bool                { return s.expanded }
func (s *Sidebar) Language() translate.Language { return s.lang }
func (s *Sidebar) Transcript() string            { return s.transcript }
func (s *Sidebar) Translation() string           { return s.translation }
func (s *Sidebar) Error() string                 { return s.errMsg }
func (s *Sidebar) Translating() bool             { return s.inFlight > 0 }
func (s *Sidebar) Translations() int             { return s.translations }

// RecognizerName is "none" when no capability was detected.
func (s *Sidebar) RecognizerName() string {
	if s.rec == nil {
		return "none"
	}
	return s.rec.Name()
}
