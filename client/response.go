package client

import (
	"fmt"
	"net/http"
	"strings"
)

// downloadFinishedMarker is the literal body returned when the response
// was streamed to a file instead of memory.
const downloadFinishedMarker = "download finished"

// Response is the caller-facing result of one executed request.
type Response struct {
	// StatusCode is the HTTP status of the final response.
	StatusCode int `json:"responseCode"`

	// RawHeaders is the unparsed response header block.
	RawHeaders string `json:"-"`

	// Headers is the parsed header map. Keys keep the case the server
	// sent; duplicate keys resolve last-wins.
	Headers map[string]string `json:"headers"`

	// Body is the response payload, or the literal "download finished"
	// marker when the body was streamed to a file.
	Body []byte `json:"body"`

	// Binary reports whether Body should be treated as opaque bytes
	// rather than text, decided from the response Content-Type.
	Binary bool `json:"-"`

	// Performance is the timing profile, present only when requested.
	Performance *PerformanceTiming `json:"performanceTiming,omitempty"`
}

// Text returns the body as a string. Meaningful when Binary is false.
func (r *Response) Text() string {
	return string(r.Body)
}

// assembleResponse converts the raw outcome into the caller-facing
// result, deciding the text-vs-binary body representation.
func assembleResponse(resp *http.Response, body []byte, downloaded bool, perf *PerformanceTiming) *Response {
	raw := rawHeaderBlock(resp)
	headers := ParseHeaderBlock(raw)

	contentType := headers[contentTypeHeader]
	binary := !downloaded &&
		(strings.Contains(contentType, contentTypeOctet) || strings.Contains(contentType, "image/"))

	return &Response{
		StatusCode:  resp.StatusCode,
		RawHeaders:  raw,
		Headers:     headers,
		Body:        body,
		Binary:      binary,
		Performance: perf,
	}
}

// rawHeaderBlock reconstructs the wire-format header block: status
// line, one header per line, blank-line terminator.
func rawHeaderBlock(resp *http.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\r\n", resp.Proto, resp.Status)

	for key, values := range resp.Header {
		for _, v := range values {
			fmt.Fprintf(&sb, "%s: %s\r\n", key, v)
		}
	}
	sb.WriteString("\r\n")

	return sb.String()
}

// ParseHeaderBlock parses a raw header block line by line. Each line is
// split on the first colon; keys and values are trimmed of surrounding
// whitespace; keys keep their case as received; duplicates overwrite so
// the last occurrence wins. Lines without a colon (the status line,
// trailing blanks) are skipped. This is deliberately best-effort, not a
// full RFC parser.
func ParseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)

	for _, line := range strings.Split(block, "\n") {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}

		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		headers[key] = value
	}

	return headers
}
