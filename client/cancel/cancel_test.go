package cancel

import (
	"sync"
	"testing"
)

func TestRegistry_Lifecycle(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(r *Registry)
		pollID      int32
		expPolled   bool
		expContains bool
	}{
		{
			name: "Registered but not canceled",
			setup: func(r *Registry) {
				r.Register(1)
			},
			pollID:      1,
			expPolled:   false,
			expContains: true,
		},
		{
			name: "Canceled entry is consumed by poll",
			setup: func(r *Registry) {
				r.Register(2)
				r.Cancel(2)
			},
			pollID:      2,
			expPolled:   true,
			expContains: false,
		},
		{
			name: "Cancel of unknown id is a no-op",
			setup: func(r *Registry) {
				r.Cancel(99)
			},
			pollID:      99,
			expPolled:   false,
			expContains: false,
		},
		{
			name: "Id zero is never registered",
			setup: func(r *Registry) {
				r.Register(0)
				r.Cancel(0)
			},
			pollID:      0,
			expPolled:   false,
			expContains: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			tc.setup(r)

			if got := r.PollAndConsume(tc.pollID); got != tc.expPolled {
				t.Errorf("PollAndConsume(%d) = %v; exp %v", tc.pollID, got, tc.expPolled)
			}

			if got := r.Contains(tc.pollID); got != tc.expContains {
				t.Errorf("Contains(%d) = %v; exp %v", tc.pollID, got, tc.expContains)
			}
		})
	}
}

func TestRegistry_PollConsumesOnce(t *testing.T) {
	r := NewRegistry()
	r.Register(7)
	r.Cancel(7)

	if !r.PollAndConsume(7) {
		t.Fatal("first poll should observe the cancellation")
	}
	if r.PollAndConsume(7) {
		t.Error("second poll should not observe the cancellation again")
	}
}

func TestRegistry_ClearRemovesEntry(t *testing.T) {
	r := NewRegistry()
	r.Register(3)
	r.Clear(3)

	if r.Contains(3) {
		t.Error("entry should be gone after Clear")
	}

	// Clearing again must not panic or error.
	r.Clear(3)
}

func TestRegistry_ConcurrentCancels(t *testing.T) {
	r := NewRegistry()

	const n = 64
	for i := int32(1); i <= n; i++ {
		r.Register(i)
	}

	var wg sync.WaitGroup
	for i := int32(1); i <= n; i++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			r.Cancel(id)
			// Cancels for ids that never existed must be benign.
			r.Cancel(id + n)
		}(i)
	}
	wg.Wait()

	for i := int32(1); i <= n; i++ {
		if !r.PollAndConsume(i) {
			t.Errorf("id %d should have been canceled", i)
		}
	}
}
