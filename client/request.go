package client

import (
	"net/http"
	"strings"
)

// Supported HTTP methods. Anything else is rejected before transfer.
var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

const (
	contentTypeHeader    = "Content-Type"
	contentTypeJSON      = "application/json"
	contentTypeForm      = "application/x-www-form-urlencoded"
	contentTypeOctet     = "application/octet-stream"
	contentTypeMultipart = "multipart/form-data"

	defaultTimeoutSeconds = 15
)

// Request describes one outbound call. It is validated and normalized by
// [Client.Do] before transfer and must not be mutated while in flight.
type Request struct {
	// URL is the absolute target URL.
	URL string `json:"url" validate:"required,url"`

	// Method is one of GET, POST, PUT, DELETE. Empty means GET.
	Method string `json:"method"`

	// Headers are sent as given. When empty, a default Content-Type is
	// synthesized: application/json for POST/PUT/DELETE, otherwise
	// application/x-www-form-urlencoded.
	Headers map[string]string `json:"headers"`

	// Body is the raw request payload. Ignored for GET and DELETE.
	// Mutually exclusive with FormFields and UploadFilePath.
	Body []byte `json:"-"`

	// BodyIsText marks Body as text (e.g. a JSON document) rather than
	// opaque binary. Binary bodies force Content-Type to
	// application/octet-stream.
	BodyIsText bool `json:"-"`

	// FormFields, when present, are submitted as multipart/form-data.
	// Requires method POST and an effective multipart Content-Type.
	FormFields []FormField `json:"multiFormDataList" validate:"dive"`

	// ConnectTimeout bounds the connection phase, in seconds. Default 15.
	ConnectTimeout int `json:"connectTimeout" validate:"gte=0"`

	// ReadTimeout bounds the whole transfer, in seconds. Default 15.
	// Ignored when DownloadFilePath is set: large downloads must not be
	// killed by a fixed deadline.
	ReadTimeout int `json:"readTimeout" validate:"gte=0"`

	// CAPath points at a PEM bundle used as the trust root.
	CAPath string `json:"caPath"`

	// ClientCertPath is a directory holding the client identity by
	// convention: client.crt/client.key for TLS, or the four-file
	// client_enc.{crt,key} + client_sign.{crt,key} pair for TLCP.
	ClientCertPath string `json:"clientCertPath"`

	// TLCP selects the national mutual-auth protocol variant.
	TLCP bool `json:"isTLCP"`

	// InsecureSkipVerify disables peer certificate chain verification.
	// Verification is on by default. Hostname verification is never
	// performed either way; this is a documented limitation of the engine.
	InsecureSkipVerify bool `json:"insecureSkipVerify"`

	// RequestID correlates cancellation and progress. Zero means the
	// request is not cancellable and reports no progress.
	RequestID int32 `json:"requestID"`

	// DownloadFilePath streams the response body to this file. A
	// non-empty existing file resumes from its current size via a
	// byte-range request.
	DownloadFilePath string `json:"downloadFilePath"`

	// UploadFilePath streams this file as the request body.
	UploadFilePath string `json:"uploadFilePath"`

	// OnProgress receives throttled (current, total) samples in absolute
	// byte terms. Delivery is best-effort; saturated samples are dropped.
	OnProgress func(current, total int64) `json:"-"`

	// PerformanceTiming enables capture of the timing profile.
	PerformanceTiming bool `json:"performanceTiming"`

	// Debug logs every protocol-level event for this request.
	Debug bool `json:"debug"`
}

// FormField is one part of a multipart submission. Exactly one of
// FilePath, Text, or Binary must be set.
type FormField struct {
	// Name is the form field name.
	Name string `json:"name" validate:"required"`

	// ContentType declares the part's MIME type.
	ContentType string `json:"contentType" validate:"required"`

	// RemoteFileName is the filename presented to the server.
	// Defaults to Name.
	RemoteFileName string `json:"remoteFileName"`

	// FilePath streams the file at this path as the part body.
	FilePath string `json:"filePath"`

	// Text embeds a text payload directly.
	Text string `json:"data"`

	// Binary embeds a binary payload directly.
	Binary []byte `json:"-"`
}

// normalize fills defaulted fields in place. Called once, before
// validation, by the engine; the descriptor is treated as immutable
// afterwards.
func (r *Request) normalize() {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	r.Method = strings.ToUpper(r.Method)

	if r.ConnectTimeout == 0 {
		r.ConnectTimeout = defaultTimeoutSeconds
	}
	if r.ReadTimeout == 0 {
		r.ReadTimeout = defaultTimeoutSeconds
	}

	// The engine normalizes a copy of the caller's descriptor, but a
	// copied slice still shares its backing array. Clone before
	// defaulting so the caller's fields are never written through.
	if len(r.FormFields) > 0 {
		fields := make([]FormField, len(r.FormFields))
		copy(fields, r.FormFields)
		for i := range fields {
			if fields[i].RemoteFileName == "" {
				fields[i].RemoteFileName = fields[i].Name
			}
		}
		r.FormFields = fields
	}
}

// effectiveContentType returns the caller-supplied Content-Type header,
// or the default that would be synthesized for the method when no
// headers were given.
func (r *Request) effectiveContentType() string {
	if ct, ok := r.Headers[contentTypeHeader]; ok {
		return ct
	}
	if len(r.Headers) > 0 {
		return ""
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return contentTypeJSON
	default:
		return contentTypeForm
	}
}

// multipart reports whether this request submits multipart form data:
// method POST with an effective multipart/form-data content type.
func (r *Request) multipart() bool {
	return r.Method == http.MethodPost &&
		strings.Contains(r.effectiveContentType(), contentTypeMultipart)
}

// bodyAllowed reports whether the method carries a plain request body.
func (r *Request) bodyAllowed() bool {
	return r.Method != http.MethodGet && r.Method != http.MethodDelete
}

// progressWired reports whether the transfer needs progress hooks:
// any cancellable request and any file or form transfer.
func (r *Request) progressWired() bool {
	return r.RequestID != 0 ||
		r.DownloadFilePath != "" ||
		r.UploadFilePath != "" ||
		len(r.FormFields) > 0
}
