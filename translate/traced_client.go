package translate

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// TracedClient sends translation requests and times each one. It sets no
// timeout of its own; callers bound requests through the context.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient() *TracedClient {
	return &TracedClient{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        2,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type TracedResponse struct {
	Body       []byte
	StatusCode int
	Metrics    *NetworkMetrics
}

// roundTrip accumulates httptrace callbacks for a single request.
type roundTrip struct {
	start    time.Time
	dnsStart time.Time
	tlsStart time.Time
	m        NetworkMetrics
}

func (rt *roundTrip) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn:              func(info httptrace.GotConnInfo) { rt.m.ConnReused = info.Reused },
		DNSStart:             func(httptrace.DNSStartInfo) { rt.dnsStart = time.Now() },
		DNSDone:              func(httptrace.DNSDoneInfo) { rt.m.DNS = time.Since(rt.dnsStart) },
		TLSHandshakeStart:    func() { rt.tlsStart = time.Now() },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { rt.m.TLS = time.Since(rt.tlsStart) },
		GotFirstResponseByte: func() { rt.m.TTFB = time.Since(rt.start) },
	}
}

// Do sends req and reads the whole body. The langpair query value is
// copied onto the metrics so log lines can be grouped by target.
func (c *TracedClient) Do(req *http.Request) (*TracedResponse, error) {
	rt := &roundTrip{m: NetworkMetrics{
		Host:     req.URL.Host,
		LangPair: req.URL.Query().Get("langpair"),
	}}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), rt.clientTrace()))

	rt.start = time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	rt.m.Total = time.Since(rt.start)

	return &TracedResponse{Body: body, StatusCode: resp.StatusCode, Metrics: &rt.m}, nil
}
