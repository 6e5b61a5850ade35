// Package throttle rate-limits transfer-progress samples using a
// token-bucket from [golang.org/x/time/rate].
//
// A [Reporter] decides, per transfer direction, whether an observed
// (current, total) byte sample should be forwarded to the caller.
// Samples are forwarded at most once per interval, except that the
// final sample of a transfer (current == total) is always forwarded.
//
// # Usage
//
// Create one Reporter per direction and feed it every observed sample:
//
//	r, err := throttle.NewReporter(time.Second, 0, func(current, total int64) {
//		fmt.Printf("%d/%d bytes\n", current, total)
//	})
//	if err != nil {
//		return err
//	}
//	r.Observe(n, contentLength)
//
// For resumed downloads, pass the already-downloaded byte count as the
// offset; reported samples are then expressed in absolute file terms.
package throttle
