package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"parley/audio"
	"parley/log"
)

const (
	DefaultDeepgramEndpoint = "wss://api.deepgram.com/v1/listen"

	chunkMs          = 200
	chunkBytes       = audio.SampleRate * audio.BytesPerFrame * chunkMs / 1000
	dialTimeout      = 10 * time.Second
	finalizeTimeout  = 3 * time.Second
	eventBufferSize  = 64
	audioBufferDepth = 128

	// Slots in the event buffer only ErrorEvent and EndEvent may use.
	terminalReserve   = 2
	terminalEventWait = 5 * time.Second
)

// Deepgram streams microphone PCM to Deepgram's live transcription websocket.
type Deepgram struct {
	Endpoint string
	Model    string

	apiKey  string
	capture audio.CaptureDevice
	events  chan Event

	mu      sync.Mutex
	opts    Options
	current *liveSession
}

func NewDeepgram(apiKey string, capture audio.CaptureDevice) *Deepgram {
	return &Deepgram{
		Endpoint: DefaultDeepgramEndpoint,
		Model:    "nova-3",
		apiKey:   apiKey,
		capture:  capture,
		events:   make(chan Event, eventBufferSize),
		opts:     Options{Continuous: true, InterimResults: true, Language: "en"},
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Events() <-chan Event { return d.events }

func (d *Deepgram) Configure(opts Options) {
	d.mu.Lock()
	d.opts = opts
	d.mu.Unlock()
}

func (d *Deepgram) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s := d.current; s != nil {
		select {
		case <-s.done:
		default:
			if s.isStopping() {
				return ErrBusy
			}
			return errors.New("speech recognizer already started")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &liveSession{
		rec:     d,
		opts:    d.opts,
		ctx:     ctx,
		cancel:  cancel,
		audioCh: make(chan []byte, audioBufferDepth),
		done:    make(chan struct{}),
	}

	d.capture.SetCallback(s.feed)
	if err := d.capture.Start(); err != nil {
		d.capture.ClearCallback()
		cancel()
		return fmt.Errorf("microphone: %w", err)
	}

	d.current = s
	log.Info("speech_start: " + d.capture.DeviceName())
	go s.run()
	return nil
}

func (d *Deepgram) Stop() {
	d.mu.Lock()
	s := d.current
	d.mu.Unlock()
	if s == nil {
		return
	}
	s.stop()
}

// emitResult drops the update once only the reserved slots are left; the
// next ResultEvent repeats every final segment. Only the session goroutine
// sends, so the length check does not race another producer.
func (d *Deepgram) emitResult(ev ResultEvent) {
	if len(d.events) >= cap(d.events)-terminalReserve {
		log.Warn("speech: result dropped, event buffer full")
		return
	}
	d.events <- ev
}

// emitTerminal waits for the consumer instead of dropping, up to
// terminalEventWait.
func (d *Deepgram) emitTerminal(ev Event) {
	t := time.NewTimer(terminalEventWait)
	defer t.Stop()
	select {
	case d.events <- ev:
	case <-t.C:
		log.Errorf("speech: %T not delivered after %v", ev, terminalEventWait)
	}
}

func (d *Deepgram) listenURL(opts Options) (string, error) {
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", d.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	q.Set("interim_results", strconv.FormatBool(opts.InterimResults))
	q.Set("smart_format", "true")
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Deepgram) dial(ctx context.Context, opts Options) (*websocket.Conn, error) {
	endpoint, err := d.listenURL(opts)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return conn, nil
}

type deepgramMessage struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// liveSession is one Start..End cycle.
type liveSession struct {
	rec    *Deepgram
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	audioMu     sync.Mutex
	audioBuf    []byte
	audioCh     chan []byte
	audioClosed bool

	mu       sync.Mutex
	stopping bool
	err      error

	finals  []Segment
	interim *Segment
}

func (s *liveSession) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *liveSession) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && !s.stopping {
		s.err = err
	}
}

// feed is the capture callback: it regroups PCM into fixed-size chunks.
func (s *liveSession) feed(data []byte, _ uint32) {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	if s.audioClosed {
		return
	}
	s.audioBuf = append(s.audioBuf, data...)
	for len(s.audioBuf) >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, s.audioBuf[:chunkBytes])
		s.audioBuf = s.audioBuf[chunkBytes:]
		select {
		case s.audioCh <- chunk:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *liveSession) releaseCapture() {
	s.rec.capture.Stop()
	s.rec.capture.ClearCallback()

	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	if s.audioClosed {
		return
	}
	s.audioClosed = true
	if len(s.audioBuf) > 0 {
		select {
		case s.audioCh <- s.audioBuf:
		case <-s.ctx.Done():
		}
		s.audioBuf = nil
	}
	close(s.audioCh)
}

func (s *liveSession) stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	log.Info("speech_stop")
	// The server flushes and closes after CloseStream; don't wait forever for it.
	time.AfterFunc(finalizeTimeout, s.cancel)
	s.releaseCapture()
}

func (s *liveSession) run() {
	defer close(s.done)
	defer s.cancel()

	conn, err := s.rec.dial(s.ctx, s.opts)
	if err != nil {
		s.setErr(fmt.Errorf("speech connect: %w", err))
		s.cancel()
		s.finish()
		return
	}

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		s.sendLoop(conn)
	}()

	s.recvLoop(conn)
	s.cancel()
	<-sendDone
	conn.Close(websocket.StatusNormalClosure, "")
	s.finish()
}

func (s *liveSession) finish() {
	s.releaseCapture()

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		log.Errorf("speech session error: %v", err)
		s.rec.emitTerminal(ErrorEvent{Err: err})
	}
	s.rec.emitTerminal(EndEvent{})
}

func (s *liveSession) sendLoop(conn *websocket.Conn) {
	for chunk := range s.audioCh {
		if err := conn.Write(s.ctx, websocket.MessageBinary, chunk); err != nil {
			s.setErr(fmt.Errorf("speech send: %w", err))
			s.cancel()
			return
		}
	}
	if err := conn.Write(s.ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("speech close stream: %w", err))
	}
}

func (s *liveSession) recvLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.setErr(fmt.Errorf("speech receive: %w", err))
			}
			return
		}

		var msg deepgramMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("speech: undecodable message: %v", err)
			continue
		}
		if msg.Type != "Results" {
			log.Debug("speech: " + msg.Type + " message")
			continue
		}
		if len(msg.Channel.Alternatives) == 0 {
			continue
		}
		alt := msg.Channel.Alternatives[0]
		seg, ok := s.apply(strings.TrimSpace(alt.Transcript), alt.Confidence, msg.IsFinal)
		if !ok {
			continue
		}
		s.rec.emitResult(seg)

		if !s.opts.Continuous && msg.IsFinal && msg.SpeechFinal {
			go s.stop()
		}
	}
}

// apply folds one server message into the session's segment list and returns
// the event to publish, if any.
func (s *liveSession) apply(transcript string, confidence float64, final bool) (ResultEvent, bool) {
	if final {
		s.interim = nil
		if transcript == "" {
			return ResultEvent{}, false
		}
		s.finals = append(s.finals, Segment{Transcript: s.spaced(transcript), Final: true, Confidence: confidence})
	} else {
		if !s.opts.InterimResults {
			return ResultEvent{}, false
		}
		if transcript == "" {
			s.interim = nil
		} else {
			s.interim = &Segment{Transcript: s.spaced(transcript), Confidence: confidence}
		}
	}

	segs := make([]Segment, 0, len(s.finals)+1)
	segs = append(segs, s.finals...)
	if s.interim != nil {
		segs = append(segs, *s.interim)
	}
	return ResultEvent{Segments: segs}, true
}

// spaced prefixes a separator on every segment after the first so that plain
// concatenation reads as a sentence.
func (s *liveSession) spaced(t string) string {
	if len(s.finals) == 0 {
		return t
	}
	return " " + t
}
