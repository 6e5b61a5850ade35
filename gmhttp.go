// Package gmhttp exposes the client engine constructor and the
// process-wide cancellation entry point.
package gmhttp

import (
	"github.com/chenchl/gmhttp/client"
	"github.com/chenchl/gmhttp/client/cancel"
)

// NewClient instantiates a new *client.Client with the provided options.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// CancelRequest flags the request with the given id for cancellation in
// the process-wide registry. Fire-and-forget: it never blocks and never
// reports whether the id was in flight.
func CancelRequest(id int32) {
	cancel.Default.Cancel(id)
}
