package translate

import "time"

// NetworkMetrics describes one translation round trip. TTFB and Total are
// measured from the moment the request was handed to the transport.
type NetworkMetrics struct {
	Host       string
	LangPair   string
	DNS        time.Duration
	TLS        time.Duration
	TTFB       time.Duration
	Total      time.Duration
	ConnReused bool
}

// Millis flattens the timings for the translation log line.
func (m *NetworkMetrics) Millis() (dns, tls, ttfb, total float64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	return ms(m.DNS), ms(m.TLS), ms(m.TTFB), ms(m.Total)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
