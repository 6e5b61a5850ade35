package client

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/chenchl/gmhttp/client/cancel"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	logger           *slog.Logger
	tracer           trace.Tracer
	registry         *cancel.Registry
	progressInterval time.Duration
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to wrap each executed request in a
// span. A no-op tracer is used by default.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithRegistry replaces the process-wide cancellation registry.
// Useful for isolating tests; most callers should keep the default so
// [CancelRequest] ids resolve across the process.
func WithRegistry(r *cancel.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return errors.New("registry must not be nil")
		}
		o.registry = r
		return nil
	}
}

// WithProgressInterval overrides the minimum spacing between forwarded
// progress samples. The default is one second.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("progress interval must be greater than zero")
		}
		o.progressInterval = d
		return nil
	}
}
