package client

import (
	"net/http"
	"testing"
)

func TestNormalize(t *testing.T) {
	r := Request{
		URL:    "http://localhost/",
		Method: "post",
		FormFields: []FormField{
			{Name: "a", ContentType: "text/plain", Text: "x"},
			{Name: "b", ContentType: "text/plain", Text: "y", RemoteFileName: "custom.txt"},
		},
	}
	r.normalize()

	if r.Method != http.MethodPost {
		t.Errorf("Method = %q, want POST", r.Method)
	}
	if r.ConnectTimeout != defaultTimeoutSeconds {
		t.Errorf("ConnectTimeout = %d, want %d", r.ConnectTimeout, defaultTimeoutSeconds)
	}
	if r.ReadTimeout != defaultTimeoutSeconds {
		t.Errorf("ReadTimeout = %d, want %d", r.ReadTimeout, defaultTimeoutSeconds)
	}
	if got := r.FormFields[0].RemoteFileName; got != "a" {
		t.Errorf("RemoteFileName defaulted to %q, want field name", got)
	}
	if got := r.FormFields[1].RemoteFileName; got != "custom.txt" {
		t.Errorf("RemoteFileName = %q, explicit value must survive", got)
	}

	empty := Request{URL: "http://localhost/"}
	empty.normalize()
	if empty.Method != http.MethodGet {
		t.Errorf("empty Method normalized to %q, want GET", empty.Method)
	}
}

func TestNormalizeDoesNotMutateCaller(t *testing.T) {
	original := Request{
		URL: "http://localhost/",
		FormFields: []FormField{
			{Name: "a", ContentType: "text/plain", Text: "x"},
		},
	}

	// The engine's copy shares the FormFields backing array with the
	// caller; defaulting must not write through it.
	engineCopy := original
	engineCopy.normalize()

	if engineCopy.FormFields[0].RemoteFileName != "a" {
		t.Errorf("copy RemoteFileName = %q, want defaulted", engineCopy.FormFields[0].RemoteFileName)
	}
	if original.FormFields[0].RemoteFileName != "" {
		t.Errorf("caller RemoteFileName = %q, descriptor was mutated", original.FormFields[0].RemoteFileName)
	}
}

func TestEffectiveContentType(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    string
	}{
		{name: "explicit header", method: http.MethodGet, headers: map[string]string{"Content-Type": "text/xml"}, want: "text/xml"},
		{name: "other headers suppress default", method: http.MethodPost, headers: map[string]string{"Accept": "*/*"}, want: ""},
		{name: "post defaults to json", method: http.MethodPost, want: contentTypeJSON},
		{name: "put defaults to json", method: http.MethodPut, want: contentTypeJSON},
		{name: "delete defaults to json", method: http.MethodDelete, want: contentTypeJSON},
		{name: "get defaults to urlencoded", method: http.MethodGet, want: contentTypeForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Request{Method: tt.method, Headers: tt.headers}
			if got := r.effectiveContentType(); got != tt.want {
				t.Errorf("effectiveContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMultipartPredicate(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    bool
	}{
		{name: "post with multipart header", method: http.MethodPost, headers: map[string]string{"Content-Type": "multipart/form-data; boundary=x"}, want: true},
		{name: "get with multipart header", method: http.MethodGet, headers: map[string]string{"Content-Type": contentTypeMultipart}, want: false},
		{name: "post without header", method: http.MethodPost, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Request{Method: tt.method, Headers: tt.headers}
			if got := r.multipart(); got != tt.want {
				t.Errorf("multipart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBodyAllowed(t *testing.T) {
	allowed := map[string]bool{
		http.MethodGet:    false,
		http.MethodDelete: false,
		http.MethodPost:   true,
		http.MethodPut:    true,
	}

	for method, want := range allowed {
		r := Request{Method: method}
		if got := r.bodyAllowed(); got != want {
			t.Errorf("bodyAllowed(%s) = %v, want %v", method, got, want)
		}
	}
}

func TestProgressWired(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{name: "plain request", req: Request{}, want: false},
		{name: "request id", req: Request{RequestID: 3}, want: true},
		{name: "download", req: Request{DownloadFilePath: "/tmp/f"}, want: true},
		{name: "upload", req: Request{UploadFilePath: "/tmp/f"}, want: true},
		{name: "form fields", req: Request{FormFields: []FormField{{Name: "a"}}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.progressWired(); got != tt.want {
				t.Errorf("progressWired() = %v, want %v", got, tt.want)
			}
		})
	}
}
