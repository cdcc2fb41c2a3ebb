package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type capture struct {
	calls    atomic.Int32
	rawQuery atomic.Value
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls.Add(1)
		c.rawQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestTranslateSuccess(t *testing.T) {
	srv, c := newServer(t, 200, `{"responseData":{"translatedText":"Hola"},"responseStatus":200}`)

	res, err := NewClient(srv.URL).Translate(context.Background(), "Hello", Spanish)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Hola" {
		t.Errorf("Text = %q, want Hola", res.Text)
	}
	if res.HTTPStatus != 200 {
		t.Errorf("HTTPStatus = %d", res.HTTPStatus)
	}
	if res.Metrics == nil || res.Metrics.Total <= 0 {
		t.Error("expected request metrics")
	}
	if got := c.rawQuery.Load().(string); got != "q=Hello&langpair=en|es" {
		t.Errorf("raw query = %q", got)
	}
}

func TestTranslateEncodesText(t *testing.T) {
	var gotQ, gotPair string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		gotPair = r.URL.Query().Get("langpair")
		if strings.Contains(r.URL.RawQuery, "+") {
			t.Errorf("spaces should be %%20, raw query %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"responseData":{"translatedText":"x"}}`)
	}))
	defer srv.Close()

	text := "fish & chips = 100% good? café"
	if _, err := NewClient(srv.URL).Translate(context.Background(), text, German); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if gotQ != text {
		t.Errorf("q = %q, want %q", gotQ, text)
	}
	if gotPair != "en|de" {
		t.Errorf("langpair = %q", gotPair)
	}
}

func TestTranslateKeepsEndpointQuery(t *testing.T) {
	srv, c := newServer(t, 200, `{"responseData":{"translatedText":"Ciao"}}`)

	if _, err := NewClient(srv.URL+"/get?de=me@example.com").Translate(context.Background(), "hi", Italian); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got := c.rawQuery.Load().(string); !strings.HasPrefix(got, "de=me@example.com&q=hi") {
		t.Errorf("raw query = %q", got)
	}
}

func TestTranslateEmptyTextNoRequest(t *testing.T) {
	srv, c := newServer(t, 200, `{}`)

	_, err := NewClient(srv.URL).Translate(context.Background(), "", Spanish)
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
	if n := c.calls.Load(); n != 0 {
		t.Errorf("server called %d times", n)
	}
}

func TestTranslateErrors(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"http 500", 500, `oops`, func(t *testing.T, err error) {
			var he *HTTPError
			if !errors.As(err, &he) || he.StatusCode != 500 {
				t.Fatalf("err = %v, want HTTPError 500", err)
			}
			if he.Body != "oops" {
				t.Errorf("Body = %q", he.Body)
			}
		}},
		{"numeric status", 200, `{"responseStatus":403,"responseDetails":"INVALID LANGUAGE PAIR"}`, func(t *testing.T, err error) {
			var se *StatusError
			if !errors.As(err, &se) || se.Status != "403" {
				t.Fatalf("err = %v, want StatusError 403", err)
			}
			if se.Details != "INVALID LANGUAGE PAIR" {
				t.Errorf("Details = %q", se.Details)
			}
		}},
		{"string status", 200, `{"responseData":null,"responseStatus":"429"}`, func(t *testing.T, err error) {
			var se *StatusError
			if !errors.As(err, &se) || se.Status != "429" {
				t.Fatalf("err = %v, want StatusError 429", err)
			}
		}},
		{"neither shape", 200, `{"responseStatus":200}`, func(t *testing.T, err error) {
			if !errors.Is(err, ErrUnknown) {
				t.Fatalf("err = %v, want ErrUnknown", err)
			}
		}},
		{"malformed", 200, `<html>`, func(t *testing.T, err error) {
			if !errors.Is(err, ErrUnknown) {
				t.Fatalf("err = %v, want ErrUnknown", err)
			}
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			res, err := NewClient(srv.URL).Translate(context.Background(), "Hello", Spanish)
			tt.check(t, err)
			if res == nil || res.Text != "" {
				t.Errorf("result = %+v, want non-nil with empty text", res)
			}
		})
	}
}

func TestTranslateNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := NewClient(url).Translate(context.Background(), "Hello", French)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on transport failure", res)
	}
	var he *HTTPError
	if errors.As(err, &he) {
		t.Error("transport failure should not be an HTTPError")
	}
}

func TestTranslateHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := NewClient(srv.URL).Translate(ctx, "Hello", Spanish); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestEncodeComponent(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"hello world", "hello%20world"},
		{"a&b=c", "a%26b%3Dc"},
		{"50%", "50%25"},
		{"ñ", "%C3%B1"},
	} {
		if got := EncodeComponent(tt.in); got != tt.want {
			t.Errorf("EncodeComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTraceRecordsLangPair(t *testing.T) {
	srv, _ := newServer(t, 200, `{"responseData":{"translatedText":"Bonjour"},"responseStatus":200}`)
	c := NewClient(srv.URL)

	first, err := c.Translate(context.Background(), "Hello", French)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	m := first.Metrics
	if m.LangPair != "en|fr" {
		t.Errorf("LangPair = %q, want en|fr", m.LangPair)
	}
	if m.Host != strings.TrimPrefix(srv.URL, "http://") {
		t.Errorf("Host = %q", m.Host)
	}
	if m.TTFB <= 0 || m.TTFB > m.Total {
		t.Errorf("TTFB = %v, Total = %v", m.TTFB, m.Total)
	}
	if m.ConnReused {
		t.Error("first request should open a new connection")
	}

	second, err := c.Translate(context.Background(), "Hello", French)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !second.Metrics.ConnReused {
		t.Error("second request should reuse the idle connection")
	}
}

func TestMetricsMillis(t *testing.T) {
	m := &NetworkMetrics{DNS: 1500 * time.Microsecond, TLS: 2 * time.Millisecond, TTFB: 10 * time.Millisecond, Total: 12 * time.Millisecond}
	dns, tls, ttfb, total := m.Millis()
	if dns != 1.5 || tls != 2 || ttfb != 10 || total != 12 {
		t.Errorf("Millis = %v %v %v %v", dns, tls, ttfb, total)
	}
	var none *NetworkMetrics
	if _, _, _, total := none.Millis(); total != 0 {
		t.Errorf("nil Millis total = %v", total)
	}
}
