package throttle

import (
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrInvalidInterval is returned by NewReporter for a non-positive interval.
var ErrInvalidInterval = errors.New("interval must be greater than zero")

// DefaultInterval is the minimum spacing between forwarded samples.
const DefaultInterval = time.Second

// EmitFunc receives a forwarded progress sample in absolute byte terms.
type EmitFunc func(current, total int64)

// Reporter throttles progress samples for a single transfer direction,
// using the time/rate token bucket to gate the emission interval.
// It is owned by one in-flight transfer and is not safe for concurrent use.
type Reporter struct {
	limiter *rate.Limiter
	emit    EmitFunc
	offset  int64
	last    int64
}
