package client

import (
	"net/http"
	"strings"
	"testing"
)

func TestParseHeaderBlock(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  map[string]string
	}{
		{
			name:  "plain headers",
			block: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nX-Custom: value\r\n\r\n",
			want:  map[string]string{"Content-Type": "text/plain", "X-Custom": "value"},
		},
		{
			name:  "duplicate keys last wins",
			block: "Set-Cookie: a=1\r\nSet-Cookie: b=2\r\n",
			want:  map[string]string{"Set-Cookie": "b=2"},
		},
		{
			name:  "value containing colons",
			block: "Location: http://example.com:8080/path\r\n",
			want:  map[string]string{"Location": "http://example.com:8080/path"},
		},
		{
			name:  "whitespace trimmed, case preserved",
			block: "  x-lower  :   spaced value  \r\n",
			want:  map[string]string{"x-lower": "spaced value"},
		},
		{
			name:  "status line and blanks skipped",
			block: "HTTP/1.1 404 Not Found\r\n\r\n",
			want:  map[string]string{},
		},
		{
			name:  "empty block",
			block: "",
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHeaderBlock(tt.block)

			if len(got) != len(tt.want) {
				t.Fatalf("parsed %d headers, want %d: %v", len(got), len(tt.want), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("headers[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestAssembleResponse(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		downloaded  bool
		wantBinary  bool
	}{
		{name: "octet-stream is binary", contentType: contentTypeOctet, wantBinary: true},
		{name: "image is binary", contentType: "image/jpeg", wantBinary: true},
		{name: "text is not", contentType: "text/html; charset=utf-8", wantBinary: false},
		{name: "downloads are never binary", contentType: contentTypeOctet, downloaded: true, wantBinary: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr := &http.Response{
				StatusCode: http.StatusOK,
				Status:     "200 OK",
				Proto:      "HTTP/1.1",
				Header:     http.Header{contentTypeHeader: []string{tt.contentType}},
			}

			resp := assembleResponse(hr, []byte("payload"), tt.downloaded, nil)

			if resp.Binary != tt.wantBinary {
				t.Errorf("Binary = %v, want %v", resp.Binary, tt.wantBinary)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
			}
			if resp.Headers[contentTypeHeader] != tt.contentType {
				t.Errorf("parsed Content-Type = %q, want %q", resp.Headers[contentTypeHeader], tt.contentType)
			}
			if !strings.HasPrefix(resp.RawHeaders, "HTTP/1.1 200 OK\r\n") {
				t.Errorf("RawHeaders = %q, want status line first", resp.RawHeaders)
			}
			if !strings.HasSuffix(resp.RawHeaders, "\r\n\r\n") {
				t.Errorf("RawHeaders = %q, want blank-line terminator", resp.RawHeaders)
			}
		})
	}
}
