package sidebar

import (
	"context"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"parley/speech"
	"parley/translate"
)

// EventMsg carries one recognizer event into the update loop.
type EventMsg struct{ Event speech.Event }

// ToggleMsg starts or stops listening from outside the key map, e.g. the
// global hotkey.
type ToggleMsg struct{}

// TranslatedMsg is the outcome of one translation request.
type TranslatedMsg struct {
	Seq    uint64
	Lang   translate.Language
	Text   string
	Chars  int
	Result *translate.Result
	Err    error
}

// Listen waits for the next recognizer event. Update re-issues it after
// every EventMsg.
func (s *Sidebar) Listen() tea.Cmd {
	if s.rec == nil || s.unmounted {
		return nil
	}
	events := s.rec.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// Translate issues a request for the current transcript, or sets the
// empty-input error and returns nil. The request is not cancellable once
// issued and has no deadline.
func (s *Sidebar) Translate() tea.Cmd {
	req, ok := s.beginTranslate()
	if !ok {
		return nil
	}
	tr := s.translator
	do := func() tea.Msg {
		res, err := tr.Translate(context.Background(), req.text, req.lang)
		return TranslatedMsg{
			Seq:    req.seq,
			Lang:   req.lang,
			Text:   req.text,
			Chars:  utf8.RuneCountInString(req.text),
			Result: res,
			Err:    err,
		}
	}
	if s.inFlight == 1 {
		return tea.Batch(do, s.spin.Tick)
	}
	return do
}

// Update routes the sidebar's keys and messages. handled is false for
// anything the sidebar does not own.
func (s *Sidebar) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg)
	case ToggleMsg:
		s.Toggle()
		return nil, true
	case EventMsg:
		s.HandleEvent(msg.Event)
		return s.Listen(), true
	case TranslatedMsg:
		s.completeTranslate(msg)
		return nil, true
	case spinner.TickMsg:
		if !s.Translating() {
			return nil, true
		}
		s.spin, cmd = s.spin.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (s *Sidebar) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, s.keys.Listen):
		s.Toggle()
		return nil, true
	case key.Matches(msg, s.keys.Translate):
		return s.Translate(), true
	case key.Matches(msg, s.keys.Language):
		s.CycleLanguage()
		return nil, true
	}
	for i, b := range s.keys.Pick {
		if key.Matches(msg, b) {
			s.SetLanguage(translate.Languages[i])
			return nil, true
		}
	}
	return nil, false
}

func (s *Sidebar) Keys() KeyMap { return s.keys }
