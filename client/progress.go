package client

import "io"

// progressQueueCap bounds the handoff between the transfer goroutine
// and the caller's progress callback. A saturated queue drops the
// sample rather than backpressuring the transfer.
const progressQueueCap = 8

type progressSample struct {
	current int64
	total   int64
}

// dispatcher delivers progress samples to the caller's callback from a
// dedicated goroutine, so a slow callback can never stall the transfer.
type dispatcher struct {
	ch   chan progressSample
	done chan struct{}
}

func newDispatcher(cb func(current, total int64)) *dispatcher {
	d := &dispatcher{
		ch:   make(chan progressSample, progressQueueCap),
		done: make(chan struct{}),
	}

	go func() {
		defer close(d.done)
		for s := range d.ch {
			cb(s.current, s.total)
		}
	}()

	return d
}

// send hands a sample to the dispatcher. Intermediate samples are
// best-effort and dropped when the queue is full; the final sample
// blocks so the 100% mark is always delivered.
func (d *dispatcher) send(current, total int64, final bool) {
	s := progressSample{current: current, total: total}

	if final {
		d.ch <- s
		return
	}

	select {
	case d.ch <- s:
	default:
	}
}

// close stops the dispatcher and waits until every queued sample has
// been delivered.
func (d *dispatcher) close() {
	close(d.ch)
	<-d.done
}

// countingReader invokes tick with the running byte total after every
// successful read. The transfer engine uses the tick to poll
// cancellation and feed the progress throttler.
type countingReader struct {
	r    io.Reader
	n    int64
	tick func(n int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.n += int64(n)
		if cr.tick != nil {
			cr.tick(cr.n)
		}
	}
	return n, err
}
