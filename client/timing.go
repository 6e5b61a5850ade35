package client

import (
	"crypto/tls"
	"encoding/json"
	"net/http/httptrace"
	"sync"
	"time"
)

// Unset marks a timing that was not observed during the transfer.
const Unset = time.Duration(-1)

// PerformanceTiming is the timing profile of one executed request.
// All values are truncated to whole milliseconds; [Unset] marks phases
// that did not occur (e.g. TLSHandshake on a plain-HTTP call). The
// profile serializes as whole-millisecond integers, see [PerformanceTiming.MarshalJSON].
type PerformanceTiming struct {
	// DNS is the name-resolution time.
	DNS time.Duration
	// TCPConnect is the connection-establishment time.
	TCPConnect time.Duration
	// TLSHandshake is the TLS or TLCP handshake time.
	TLSHandshake time.Duration
	// FirstByteSent is the time from call start until the request
	// headers were written to the wire.
	FirstByteSent time.Duration
	// FirstByteReceived is the time from call start until the first
	// response byte arrived.
	FirstByteReceived time.Duration
	// Total is the transport-measured transfer time.
	Total time.Duration
	// Redirect is the time spent following redirects, if any.
	Redirect time.Duration
	// WallClock is measured by the engine itself, from call start to
	// result delivery. It is distinct from (and never smaller than) Total.
	WallClock time.Duration
}

// MarshalJSON serializes every phase as a whole-millisecond integer
// under the engine's wire names. [Unset] phases marshal as -1.
func (p PerformanceTiming) MarshalJSON() ([]byte, error) {
	ms := func(d time.Duration) int64 {
		if d < 0 {
			return -1
		}
		return int64(d / time.Millisecond)
	}

	return json.Marshal(struct {
		DNS               int64 `json:"dnsTiming"`
		TCPConnect        int64 `json:"tcpTiming"`
		TLSHandshake      int64 `json:"tlsTiming"`
		FirstByteSent     int64 `json:"firstSendTiming"`
		FirstByteReceived int64 `json:"firstReceiveTiming"`
		Total             int64 `json:"totalFinishTiming"`
		Redirect          int64 `json:"redirectTiming"`
		WallClock         int64 `json:"totalTiming"`
	}{
		DNS:               ms(p.DNS),
		TCPConnect:        ms(p.TCPConnect),
		TLSHandshake:      ms(p.TLSHandshake),
		FirstByteSent:     ms(p.FirstByteSent),
		FirstByteReceived: ms(p.FirstByteReceived),
		Total:             ms(p.Total),
		Redirect:          ms(p.Redirect),
		WallClock:         ms(p.WallClock),
	})
}

// traceCapture accumulates raw timing samples during a transfer.
// httptrace callbacks may fire on transport-internal goroutines, so
// every mutation takes the mutex.
type traceCapture struct {
	mu    sync.Mutex
	start time.Time

	dnsStart     time.Time
	connectStart time.Time
	tlsStart     time.Time

	dns           time.Duration
	connect       time.Duration
	tlsHandshake  time.Duration
	wroteHeaders  time.Duration
	firstRespByte time.Duration
	redirect      time.Duration
}

func newTraceCapture(start time.Time) *traceCapture {
	return &traceCapture{
		start:         start,
		dns:           Unset,
		connect:       Unset,
		tlsHandshake:  Unset,
		wroteHeaders:  Unset,
		firstRespByte: Unset,
		redirect:      Unset,
	}
}

// clientTrace wires the capture into a request via httptrace.
func (tc *traceCapture) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			tc.dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if !tc.dnsStart.IsZero() {
				tc.dns = time.Since(tc.dnsStart)
			}
		},
		ConnectStart: func(network, addr string) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if tc.connectStart.IsZero() {
				tc.connectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if err == nil && !tc.connectStart.IsZero() {
				tc.connect = time.Since(tc.connectStart)
			}
		},
		TLSHandshakeStart: func() {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			tc.tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if err == nil && !tc.tlsStart.IsZero() {
				tc.tlsHandshake = time.Since(tc.tlsStart)
			}
		},
		WroteHeaders: func() {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if tc.wroteHeaders == Unset {
				tc.wroteHeaders = time.Since(tc.start)
			}
		},
		GotFirstResponseByte: func() {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			if tc.firstRespByte == Unset {
				tc.firstRespByte = time.Since(tc.start)
			}
		},
	}
}

// markTLSHandshake records a handshake duration measured outside
// httptrace. The TLCP dialer performs its own handshake, which the
// transport's trace callbacks never see.
func (tc *traceCapture) markTLSHandshake(d time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tlsHandshake = d
}

// markRedirect records the time spent up to the latest redirect hop.
func (tc *traceCapture) markRedirect() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.redirect = time.Since(tc.start)
}

// profile builds the caller-facing timing record. total is the
// transport-measured transfer time; the engine's wall clock is stamped
// by the assembler at delivery time.
func (tc *traceCapture) profile(total time.Duration) *PerformanceTiming {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	return &PerformanceTiming{
		DNS:               truncateMS(tc.dns),
		TCPConnect:        truncateMS(tc.connect),
		TLSHandshake:      truncateMS(tc.tlsHandshake),
		FirstByteSent:     truncateMS(tc.wroteHeaders),
		FirstByteReceived: truncateMS(tc.firstRespByte),
		Total:             truncateMS(total),
		Redirect:          truncateMS(tc.redirect),
		WallClock:         Unset,
	}
}

func truncateMS(d time.Duration) time.Duration {
	if d < 0 {
		return Unset
	}
	return d.Truncate(time.Millisecond)
}
