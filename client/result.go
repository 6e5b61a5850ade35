package client

// Result represents an in-flight or completed async request.
type Result struct {
	done chan struct{}
	resp *Response
	err  error
}

// Done returns a channel that is closed when the request completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Wait blocks until the request completes and returns its outcome.
// Exactly one of the response and the error is non-nil.
func (r *Result) Wait() (*Response, error) {
	<-r.done
	return r.resp, r.err
}

// Err blocks until the request completes and returns its error, if any.
func (r *Result) Err() error {
	<-r.done
	return r.err
}
