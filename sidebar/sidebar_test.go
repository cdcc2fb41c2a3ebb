package sidebar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"parley/speech"
	"parley/translate"
)

type stubTranslator struct {
	mu    sync.Mutex
	calls []string
	reply func(n int, text string, target translate.Language) (*translate.Result, error)
}

func (s *stubTranslator) Translate(_ context.Context, text string, target translate.Language) (*translate.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	n := len(s.calls)
	s.mu.Unlock()
	if s.reply == nil {
		return &translate.Result{Text: "ok", Target: target, HTTPStatus: 200}, nil
	}
	return s.reply(n, text, target)
}

func (s *stubTranslator) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// runTranslation executes a Translate command and returns its TranslatedMsg,
// skipping the spinner tick batched alongside it.
func runTranslation(t *testing.T, cmd tea.Cmd) TranslatedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a translate command")
	}
	switch msg := cmd().(type) {
	case TranslatedMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if tm, ok := c().(TranslatedMsg); ok {
				return tm
			}
		}
	}
	t.Fatal("command produced no TranslatedMsg")
	return TranslatedMsg{}
}

func mounted(t *testing.T, tr Translator) (*Sidebar, *speech.Fake) {
	t.Helper()
	rec := speech.NewFake()
	sb := New(rec, tr, translate.Spanish)
	sb.Mount()
	return sb, rec
}

func withTranscript(sb *Sidebar, text string) {
	sb.HandleEvent(speech.ResultEvent{Segments: []speech.Segment{{Transcript: text}}})
}

func TestMountConfiguresRecognizer(t *testing.T) {
	sb, rec := mounted(t, &stubTranslator{})
	opts := rec.Options()
	if !opts.Continuous || !opts.InterimResults {
		t.Errorf("options = %+v, want continuous with interim results", opts)
	}
	if sb.Error() != "" || sb.Disabled() || sb.Listening() {
		t.Errorf("fresh sidebar: err=%q disabled=%v listening=%v", sb.Error(), sb.Disabled(), sb.Listening())
	}
	if sb.Language() != translate.Spanish {
		t.Errorf("default language = %q", sb.Language())
	}
}

func TestNoCapability(t *testing.T) {
	sb := New(nil, &stubTranslator{}, translate.French)
	sb.Mount()

	if sb.Error() != MsgUnsupported || !sb.Disabled() {
		t.Fatalf("err=%q disabled=%v", sb.Error(), sb.Disabled())
	}
	for range 3 {
		sb.Toggle()
	}
	if sb.Listening() {
		t.Error("listening without a recognizer")
	}
	if sb.Error() != MsgUnsupported {
		t.Errorf("err = %q, want %q", sb.Error(), MsgUnsupported)
	}
	if sb.Listen() != nil {
		t.Error("Listen should be nil without a recognizer")
	}
	if sb.RecognizerName() != "none" {
		t.Errorf("RecognizerName = %q", sb.RecognizerName())
	}
	sb.Unmount()
}

func TestToggle(t *testing.T) {
	sb, rec := mounted(t, &stubTranslator{})

	sb.HandleEvent(speech.ErrorEvent{Err: errors.New("no-speech")})
	if sb.Error() != MsgRecognitionError {
		t.Fatalf("err = %q", sb.Error())
	}

	sb.Toggle()
	if !sb.Listening() || sb.Error() != "" {
		t.Fatalf("after start: listening=%v err=%q", sb.Listening(), sb.Error())
	}
	sb.Toggle()
	if sb.Listening() {
		t.Fatal("still listening after stop")
	}
	if starts, stops := rec.Counts(); starts != 1 || stops != 1 {
		t.Errorf("starts=%d stops=%d", starts, stops)
	}
}

func TestToggleStartFailure(t *testing.T) {
	sb, rec := mounted(t, &stubTranslator{})
	rec.StartErr = speech.ErrBusy

	sb.Toggle()
	if sb.Listening() {
		t.Error("listening after failed start")
	}
	if sb.Error() != MsgRecognitionError {
		t.Errorf("err = %q", sb.Error())
	}
}

func TestResultReplacesTranscript(t *testing.T) {
	sb, _ := mounted(t, &stubTranslator{})

	sb.HandleEvent(speech.ResultEvent{Segments: []speech.Segment{
		{Transcript: "hello", Final: true},
		{Transcript: " wor"},
	}})
	if got := sb.Transcript(); got != "hello wor" {
		t.Fatalf("transcript = %q", got)
	}

	sb.HandleEvent(speech.ResultEvent{Segments: []speech.Segment{{Transcript: "goodbye"}}})
	if got := sb.Transcript(); got != "goodbye" {
		t.Errorf("transcript = %q, want full replacement", got)
	}
}

func TestRepeatedErrorsGoIdleOnce(t *testing.T) {
	sb, _ := mounted(t, &stubTranslator{})
	sb.Toggle()

	transitions := 0
	for range 3 {
		if sb.HandleEvent(speech.ErrorEvent{}) {
			transitions++
		}
		if sb.Listening() {
			t.Fatal("listening after error event")
		}
	}
	if transitions != 1 {
		t.Errorf("transitions = %d, want 1", transitions)
	}
	if sb.Error() != MsgRecognitionError {
		t.Errorf("err = %q", sb.Error())
	}
}

func TestEndEventGoesIdle(t *testing.T) {
	sb, _ := mounted(t, &stubTranslator{})
	sb.Toggle()
	if !sb.HandleEvent(speech.EndEvent{}) {
		t.Error("end event should end listening")
	}
	if sb.HandleEvent(speech.EndEvent{}) {
		t.Error("second end event reported a transition")
	}
	if sb.Error() != "" {
		t.Errorf("end event set error %q", sb.Error())
	}
}

func TestUnmountStopsOnce(t *testing.T) {
	t.Run("listening", func(t *testing.T) {
		sb, rec := mounted(t, &stubTranslator{})
		sb.Toggle()
		sb.Unmount()
		sb.Unmount()
		if _, stops := rec.Counts(); stops != 1 {
			t.Errorf("stops = %d, want 1", stops)
		}
		if sb.Listening() {
			t.Error("listening after unmount")
		}
	})
	t.Run("idle", func(t *testing.T) {
		sb, rec := mounted(t, &stubTranslator{})
		sb.Unmount()
		if _, stops := rec.Counts(); stops != 1 {
			t.Errorf("stops = %d, want 1", stops)
		}
		sb.Toggle()
		if starts, _ := rec.Counts(); starts != 0 {
			t.Error("started after unmount")
		}
	})
}

func TestTranslateEmptyBuffer(t *testing.T) {
	tr := &stubTranslator{}
	sb, _ := mounted(t, tr)

	if cmd := sb.Translate(); cmd != nil {
		t.Fatal("expected no command for empty transcript")
	}
	if tr.count() != 0 {
		t.Errorf("translator called %d times", tr.count())
	}
	if sb.Error() != MsgEmptyInput {
		t.Errorf("err = %q", sb.Error())
	}
	if sb.Translating() {
		t.Error("in flight with no request")
	}
}

func translateServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestTranslateAgainstEndpoint(t *testing.T) {
	srv, query := translateServer(t, http.StatusOK, `{"responseData":{"translatedText":"Hola"},"responseStatus":200}`)
	sb, _ := mounted(t, translate.NewClient(srv.URL))
	withTranscript(sb, "Hello")
	sb.errMsg = MsgRecognitionError

	cmd := sb.Translate()
	if !sb.Translating() {
		t.Error("not marked in flight")
	}
	sb.Update(runTranslation(t, cmd))

	if sb.Translation() != "Hola" {
		t.Errorf("translation = %q", sb.Translation())
	}
	if sb.Error() != "" {
		t.Errorf("err = %q, want cleared", sb.Error())
	}
	if sb.Translating() {
		t.Error("still in flight")
	}
	if q := *query; q.Get("q") != "Hello" || q.Get("langpair") != "en|es" {
		t.Errorf("query = %v", q)
	}
	if sb.Translations() != 1 {
		t.Errorf("Translations = %d", sb.Translations())
	}
}

func TestTranslateFailuresKeepResult(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status 403", 200, `{"responseData":null,"responseStatus":403,"responseDetails":"quota"}`, "Translation failed: 403"},
		{"http 500", 500, `oops`, "Translation failed: HTTP error! status: 500"},
		{"neither", 200, `{"responseData":{"translatedText":""}}`, "Translation failed: Unknown translation error"},
		{"malformed", 200, `<html>`, "Translation failed: Unknown translation error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := translateServer(t, tc.status, tc.body)
			sb, _ := mounted(t, translate.NewClient(srv.URL))
			sb.translation = "Hola"
			withTranscript(sb, "Hello")

			sb.Update(runTranslation(t, sb.Translate()))

			if sb.Translation() != "Hola" {
				t.Errorf("translation = %q, want unchanged", sb.Translation())
			}
			if sb.Error() != tc.want {
				t.Errorf("err = %q, want %q", sb.Error(), tc.want)
			}
		})
	}
}

func TestTranslateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	sb, _ := mounted(t, translate.NewClient(endpoint))
	withTranscript(sb, "Hello")
	sb.Update(runTranslation(t, sb.Translate()))

	if !strings.HasPrefix(sb.Error(), "Translation failed: ") {
		t.Errorf("err = %q", sb.Error())
	}
	if strings.Contains(sb.Error(), "translate request") {
		t.Errorf("err leaks wrapping: %q", sb.Error())
	}
}

func TestLastResponseWins(t *testing.T) {
	tr := &stubTranslator{reply: func(n int, text string, _ translate.Language) (*translate.Result, error) {
		return &translate.Result{Text: text + "#" + string(rune('0'+n))}, nil
	}}
	sb, _ := mounted(t, tr)

	withTranscript(sb, "first")
	first := sb.Translate()
	withTranscript(sb, "second")
	sb.SetLanguage(translate.German)
	second := sb.Translate()

	m1 := runTranslation(t, first)
	m2 := runTranslation(t, second)
	if m1.Seq >= m2.Seq {
		t.Fatalf("seq not increasing: %d, %d", m1.Seq, m2.Seq)
	}
	if m1.Lang != translate.Spanish || m2.Lang != translate.German {
		t.Errorf("langs = %q, %q", m1.Lang, m2.Lang)
	}

	sb.Update(m2)
	if !sb.Translating() {
		t.Error("first request should still be in flight")
	}
	sb.Update(m1)

	if got := sb.Translation(); got != "first#1" {
		t.Errorf("translation = %q, want the last arrival", got)
	}
	if sb.Translating() {
		t.Error("requests still in flight")
	}
}

func TestLanguageSelection(t *testing.T) {
	sb, _ := mounted(t, &stubTranslator{})

	sb.CycleLanguage()
	if sb.Language() != translate.French {
		t.Errorf("after cycle = %q", sb.Language())
	}
	if sb.SetLanguage("xx") {
		t.Error("accepted unknown language")
	}

	sb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	if sb.Language() != translate.Portuguese {
		t.Errorf("after key 5 = %q", sb.Language())
	}
	sb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if sb.Language() != translate.Spanish {
		t.Errorf("after l = %q", sb.Language())
	}
}

func TestKeys(t *testing.T) {
	tr := &stubTranslator{}
	sb, rec := mounted(t, tr)

	if _, handled := sb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}); !handled {
		t.Fatal("m not handled")
	}
	if starts, _ := rec.Counts(); starts != 1 || !sb.Listening() {
		t.Errorf("m did not start listening")
	}

	cmd, handled := sb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if !handled || cmd != nil || sb.Error() != MsgEmptyInput {
		t.Errorf("t with empty transcript: handled=%v cmd=%v err=%q", handled, cmd != nil, sb.Error())
	}

	if _, handled := sb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}); handled {
		t.Error("x should fall through to the host")
	}
}

func TestEventMsgRelistens(t *testing.T) {
	sb, rec := mounted(t, &stubTranslator{})

	cmd := sb.Listen()
	rec.Result("hi", " there")
	msg, ok := cmd().(EventMsg)
	if !ok {
		t.Fatal("listen did not yield an EventMsg")
	}
	next, handled := sb.Update(msg)
	if !handled || next == nil {
		t.Fatal("EventMsg should be handled and re-listen")
	}
	if sb.Transcript() != "hi there" {
		t.Errorf("transcript = %q", sb.Transcript())
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&translate.HTTPError{StatusCode: 429}, "HTTP error! status: 429"},
		{&translate.StatusError{Status: "403", Details: "x"}, "403"},
		{translate.ErrUnknown, "Unknown translation error"},
		{&url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, "connection refused"},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		if got := describe(tc.err); got != tc.want {
			t.Errorf("describe(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
