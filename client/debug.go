package client

import (
	"net/http"
)

// Debug logging for protocol-level events. Best-effort by construction:
// slog handlers never fail the caller, so a broken sink can never fail
// or stall the transfer.

func (c *Client) debugRequest(r *Request, corrID string, req *http.Request) {
	if !r.Debug {
		return
	}

	c.logger.Info("request headers",
		"component", logComponent,
		"request", corrID,
		"method", req.Method,
		"url", req.URL.String(),
		"headers", headerPairs(req.Header),
	)
}

func (c *Client) debugResponse(r *Request, corrID string, resp *http.Response) {
	if !r.Debug {
		return
	}

	c.logger.Info("response headers",
		"component", logComponent,
		"request", corrID,
		"status", resp.Status,
		"headers", headerPairs(resp.Header),
	)
}

func (c *Client) debugProgress(r *Request, corrID, direction string, current, total int64) {
	if !r.Debug || total <= 0 {
		return
	}

	c.logger.Info("transfer progress",
		"component", logComponent,
		"request", corrID,
		"direction", direction,
		"percent", current*100/total,
		"current", current,
		"total", total,
	)
}

func headerPairs(h http.Header) []string {
	pairs := make([]string, 0, len(h))
	for k, vs := range h {
		for _, v := range vs {
			pairs = append(pairs, k+": "+v)
		}
	}
	return pairs
}
