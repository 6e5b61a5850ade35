package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
)

// Engine error codes. Transport failures use the low range and mirror
// the conventional curl numbering for the common cases; HTTP-level
// failures surface the real status code; everything unexpected lands
// in the high range.
const (
	CodeTransport    = 1  // unclassified transport failure
	CodeDNS          = 6  // name resolution failed
	CodeConnect      = 7  // TCP connect failed
	CodeTimeout      = 28 // transfer deadline exceeded
	CodeTLSHandshake = 35 // TLS/TLCP handshake failed
	CodeReceive      = 56 // receiving data failed

	CodeValidation         = 100 // descriptor failed validation
	CodeFileAccess         = 101 // upload/download path could not be opened
	CodeInit               = 102 // transport session could not be created
	CodeCanceled           = 103 // canceled via the cancellation registry
	CodeUnsupportedMethod  = 104 // method outside GET/POST/PUT/DELETE
	CodeUnsupportedContent = 105 // form fields without a multipart content type
	CodeIncompleteForm     = 106 // form field missing its payload variant

	CodeInternal = 2000 // unexpected failure caught at the outermost boundary
)

var (
	// ErrCanceled is the sentinel wrapped by an [Error] with [CodeCanceled].
	ErrCanceled = errors.New("request canceled by user")
	// ErrUnsupportedMethod is returned for methods outside GET/POST/PUT/DELETE.
	ErrUnsupportedMethod = errors.New("unsupported http method")
	// ErrUnsupportedContentType is returned when form fields are supplied
	// without an effective multipart/form-data content type.
	ErrUnsupportedContentType = errors.New("unsupported content type for form data")
	// ErrIncompleteFormData is returned when a form field carries no payload.
	ErrIncompleteFormData = errors.New("incomplete form data")
)

// Error is the terminal failure of one request: a numeric code plus the
// transport's or engine's own description. The caller always receives
// either a fully-populated Response or an *Error, never both.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gmhttp: code %d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with the given code, using err's text as the message.
func newError(code int, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// errorf builds an *Error from a format string.
func errorf(code int, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// transportError classifies a failure from the underlying transport
// into the low-range code space.
func transportError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	code := CodeTransport
	switch {
	case errors.Is(err, ErrCanceled):
		code = CodeCanceled
	case isTimeout(err):
		code = CodeTimeout
	case isDNSError(err):
		code = CodeDNS
	case isConnectError(err):
		code = CodeConnect
	case isTLSError(err):
		code = CodeTLSHandshake
	}

	return newError(code, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var alertErr tls.AlertError
	return errors.As(err, &alertErr)
}
