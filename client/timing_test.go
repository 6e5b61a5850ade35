package client

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPerformanceTimingMarshalsMilliseconds(t *testing.T) {
	p := PerformanceTiming{
		DNS:               5 * time.Millisecond,
		TCPConnect:        Unset,
		TLSHandshake:      Unset,
		FirstByteSent:     12 * time.Millisecond,
		FirstByteReceived: 30 * time.Millisecond,
		Total:             42 * time.Millisecond,
		Redirect:          Unset,
		WallClock:         50 * time.Millisecond,
	}

	out, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"dnsTiming":5,"tcpTiming":-1,"tlsTiming":-1,"firstSendTiming":12,` +
		`"firstReceiveTiming":30,"totalFinishTiming":42,"redirectTiming":-1,"totalTiming":50}`
	if string(out) != want {
		t.Errorf("marshaled = %s\nwant      = %s", out, want)
	}
}

func TestPerformanceTimingMarshalsInsideResponse(t *testing.T) {
	resp := Response{
		StatusCode:  200,
		Headers:     map[string]string{},
		Body:        []byte("ok"),
		Performance: &PerformanceTiming{Total: 7 * time.Millisecond, WallClock: 9 * time.Millisecond, DNS: Unset, TCPConnect: Unset, TLSHandshake: Unset, FirstByteSent: Unset, FirstByteReceived: Unset, Redirect: Unset},
	}

	out, err := json.Marshal(&resp)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded struct {
		Performance map[string]int64 `json:"performanceTiming"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if decoded.Performance["totalFinishTiming"] != 7 {
		t.Errorf("totalFinishTiming = %d, want 7", decoded.Performance["totalFinishTiming"])
	}
	if decoded.Performance["totalTiming"] != 9 {
		t.Errorf("totalTiming = %d, want 9", decoded.Performance["totalTiming"])
	}
	if decoded.Performance["dnsTiming"] != -1 {
		t.Errorf("dnsTiming = %d, want -1", decoded.Performance["dnsTiming"])
	}
}

func TestTruncateMS(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{name: "sub-millisecond truncates to zero", in: 900 * time.Microsecond, want: 0},
		{name: "truncates fraction", in: 5*time.Millisecond + 700*time.Microsecond, want: 5 * time.Millisecond},
		{name: "negative maps to Unset", in: -3 * time.Second, want: Unset},
		{name: "unset stays unset", in: Unset, want: Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateMS(tt.in); got != tt.want {
				t.Errorf("truncateMS(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
