package throttle

import (
	"errors"
	"testing"
	"time"
)

func TestNewReporter_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		interval time.Duration
		expErr   error
	}{
		{
			name:     "Invalid interval (zero)",
			interval: 0,
			expErr:   ErrInvalidInterval,
		},
		{
			name:     "Invalid interval (negative)",
			interval: -time.Second,
			expErr:   ErrInvalidInterval,
		},
		{
			name:     "Valid interval",
			interval: time.Second,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewReporter(tc.interval, 0, nil)

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
			} else {
				if err != nil {
					t.Errorf("exp nil err, got: %v", err)
				}
				if r == nil {
					t.Error("exp non-nil Reporter")
				}
			}
		})
	}
}

func TestReporter_EmissionRules(t *testing.T) {
	type sample struct {
		current int64
		total   int64
		expEmit bool
	}

	testCases := []struct {
		name    string
		offset  int64
		samples []sample
	}{
		{
			name: "Unknown total never emits",
			samples: []sample{
				{current: 10, total: 0, expEmit: false},
				{current: 20, total: -1, expEmit: false},
			},
		},
		{
			name: "First sample emits, repeats are suppressed",
			samples: []sample{
				{current: 10, total: 100, expEmit: true},
				{current: 10, total: 100, expEmit: false},
			},
		},
		{
			name: "Interval gate suppresses rapid samples",
			samples: []sample{
				{current: 10, total: 100, expEmit: true},
				{current: 20, total: 100, expEmit: false},
				{current: 30, total: 100, expEmit: false},
			},
		},
		{
			name: "Completion sample bypasses the interval gate",
			samples: []sample{
				{current: 10, total: 100, expEmit: true},
				{current: 50, total: 100, expEmit: false},
				{current: 100, total: 100, expEmit: true},
			},
		},
		{
			name:   "Offset applied to emitted values",
			offset: 1000,
			samples: []sample{
				{current: 50, total: 100, expEmit: true},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotCurrent, gotTotal int64
			r, err := NewReporter(time.Hour, tc.offset, func(current, total int64) {
				gotCurrent, gotTotal = current, total
			})
			if err != nil {
				t.Fatal(err)
			}

			for i, s := range tc.samples {
				if emitted := r.Observe(s.current, s.total); emitted != s.expEmit {
					t.Errorf("sample %d (%d/%d): emitted = %v; exp %v", i, s.current, s.total, emitted, s.expEmit)
				}
				if s.expEmit {
					if gotCurrent != tc.offset+s.current || gotTotal != tc.offset+s.total {
						t.Errorf("sample %d: emitted (%d, %d); exp (%d, %d)",
							i, gotCurrent, gotTotal, tc.offset+s.current, tc.offset+s.total)
					}
				}
			}
		})
	}
}

func TestReporter_IntervalElapses(t *testing.T) {
	var emits int
	r, err := NewReporter(50*time.Millisecond, 0, func(current, total int64) {
		emits++
	})
	if err != nil {
		t.Fatal(err)
	}

	r.Observe(10, 100)
	r.Observe(20, 100) // suppressed: interval not elapsed
	time.Sleep(60 * time.Millisecond)
	r.Observe(30, 100) // interval elapsed

	if emits != 2 {
		t.Errorf("exp 2 emissions, got %d", emits)
	}
}

func TestReporter_IndependentDirections(t *testing.T) {
	var upEmits, downEmits int

	up, err := NewReporter(time.Hour, 0, func(current, total int64) { upEmits++ })
	if err != nil {
		t.Fatal(err)
	}
	down, err := NewReporter(time.Hour, 0, func(current, total int64) { downEmits++ })
	if err != nil {
		t.Fatal(err)
	}

	up.Observe(10, 100)
	down.Observe(10, 100)

	if upEmits != 1 || downEmits != 1 {
		t.Errorf("each direction should emit independently; up=%d down=%d", upEmits, downEmits)
	}
}
