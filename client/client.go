package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/chenchl/gmhttp/client/cancel"
	"github.com/chenchl/gmhttp/client/throttle"
)

// logComponent tags every engine log line.
const logComponent = "gmhttp"

// Client executes requests. It holds no per-request state and is safe
// for concurrent use; each call owns its own transport session.
type Client struct {
	logger           *slog.Logger
	tracer           trace.Tracer
	registry         *cancel.Registry
	progressInterval time.Duration
}

// Build creates a Client with the given options. The default slog
// logger, a no-op tracer, and the process-wide cancellation registry
// are used unless overridden.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger:           slog.Default(),
		tracer:           noop.NewTracerProvider().Tracer(logComponent),
		registry:         cancel.Default,
		progressInterval: throttle.DefaultInterval,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, err
		}
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.registry != nil {
		client.registry = opts.registry
	}
	if opts.progressInterval > 0 {
		client.progressInterval = opts.progressInterval
	}

	return client, nil
}

// Do executes one request and blocks until it completes. On failure the
// returned error is always an *Error carrying a code from the engine's
// taxonomy; the caller never sees a panic or a silent drop.
func (c *Client) Do(ctx context.Context, r *Request) (resp *Response, err error) {
	start := time.Now()

	// The caller's descriptor is never mutated; normalization happens
	// on the engine's own copy.
	req := *r
	req.normalize()

	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = errorf(CodeInternal, "unexpected failure: %v", rec)
		}
	}()

	if verr := req.validateRequest(); verr != nil {
		return nil, verr
	}

	ctx, span := c.tracer.Start(ctx, "gmhttp.request", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL),
	))
	defer span.End()

	corrID := uuid.NewString()

	c.registry.Register(req.RequestID)
	defer c.registry.Clear(req.RequestID)

	result, xerr := c.execute(ctx, &req, corrID, start)
	if xerr != nil {
		span.RecordError(xerr)
		return nil, xerr
	}

	if result.Performance != nil {
		result.Performance.WallClock = truncateMS(time.Since(start))
	}

	return result, nil
}

// DoAsync executes the request on its own goroutine and returns
// immediately. The result is delivered through the returned [Result]
// exactly once; the calling goroutine is never blocked by the transfer.
func (c *Client) DoAsync(ctx context.Context, r *Request) *Result {
	res := &Result{done: make(chan struct{})}

	go func() {
		defer close(res.done)
		res.resp, res.err = c.Do(ctx, r)
	}()

	return res
}

// CancelRequest flags the request with the given id for cancellation.
// Fire-and-forget: it never blocks and never reports whether the id was
// in flight. The transfer observes the flag at its next progress tick.
func (c *Client) CancelRequest(id int32) {
	c.registry.Cancel(id)
}

