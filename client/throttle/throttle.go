package throttle

import (
	"time"

	"golang.org/x/time/rate"
)

// NewReporter builds a Reporter that forwards at most one sample per
// interval to emit. offset is added to both current and total on every
// forwarded sample, so resumed transfers report absolute file positions
// rather than session-relative ones.
func NewReporter(interval time.Duration, offset int64, emit EmitFunc) (*Reporter, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	return &Reporter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		emit:    emit,
		offset:  offset,
	}, nil
}

// Observe feeds one progress sample to the Reporter and reports whether
// it was forwarded. A sample is forwarded iff the total is known, the
// byte count changed since the last forwarded sample, and either the
// interval has elapsed or the transfer just completed. The completion
// sample bypasses the interval gate so the 100% mark is never dropped.
func (r *Reporter) Observe(current, total int64) bool {
	if total <= 0 || current == r.last {
		return false
	}

	if current != total && !r.limiter.Allow() {
		return false
	}

	r.last = current
	if r.emit != nil {
		r.emit(r.offset+current, r.offset+total)
	}

	return true
}
