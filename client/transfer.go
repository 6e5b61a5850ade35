package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/textproto"
	"os"
	"strings"
	"time"

	"gitee.com/Trisia/gotlcp/tlcp"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/chenchl/gmhttp/client/throttle"
)

// transferBufferSize is the chunk size for streamed uploads and
// downloads: large enough to keep syscall overhead down, small enough
// to bound per-request memory.
const transferBufferSize = 128 << 10

const acceptEncodingHeader = "gzip, deflate"

// requestBody is the assembled outbound payload.
type requestBody struct {
	reader      io.Reader
	size        int64 // -1 when unknown
	contentType string
	upload      bool // streams a file or form; progress-wired
	closers     []io.Closer
}

func (rb *requestBody) close() {
	for _, c := range rb.closers {
		_ = c.Close()
	}
}

// execute turns one validated descriptor into a Response. It owns the
// whole transfer lifecycle: session setup, body encoding, the blocking
// transport call, streaming, and cleanup on every exit path.
func (c *Client) execute(ctx context.Context, r *Request, corrID string, start time.Time) (*Response, *Error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// The read timeout bounds the whole transfer, except for downloads:
	// an arbitrarily large file must not be killed by a fixed deadline.
	if r.DownloadFilePath == "" && r.ReadTimeout > 0 {
		var cancelDeadline context.CancelFunc
		ctx, cancelDeadline = context.WithTimeout(ctx, time.Duration(r.ReadTimeout)*time.Second)
		defer cancelDeadline()
	}

	tc := newTraceCapture(start)
	if r.PerformanceTiming {
		ctx = httptrace.WithClientTrace(ctx, tc.clientTrace())
	}

	transport, initErr := c.buildTransport(r, tc)
	if initErr != nil {
		return nil, initErr
	}
	defer transport.CloseIdleConnections()

	// A download resumes from however much is already on disk. The size
	// is inspected before the call; the file itself is opened only once
	// the response status is known, so a failed request leaves it untouched.
	var resumeOffset int64
	if r.DownloadFilePath != "" {
		if fi, err := os.Stat(r.DownloadFilePath); err == nil {
			resumeOffset = fi.Size()
		}
	}

	var disp *dispatcher
	if r.OnProgress != nil && r.progressWired() {
		disp = newDispatcher(r.OnProgress)
		defer disp.close()
	}

	// Every progress tick polls the cancellation registry before
	// anything else; a canceled request aborts mid-transfer via the
	// context cause and has no partial success path.
	poll := func() {
		if c.registry.PollAndConsume(r.RequestID) {
			cancel(ErrCanceled)
		}
	}

	body, bodyErr := c.buildBody(r)
	if bodyErr != nil {
		return nil, bodyErr
	}
	defer body.close()

	reader := body.reader
	if body.upload && reader != nil {
		upReporter, err := throttle.NewReporter(c.progressInterval, 0, func(current, total int64) {
			c.debugProgress(r, corrID, "upload", current, total)
			if disp != nil {
				disp.send(current, total, current == total)
			}
		})
		if err != nil {
			return nil, newError(CodeInternal, err)
		}

		uploadTotal := body.size
		reader = &countingReader{r: reader, tick: func(n int64) {
			poll()
			upReporter.Observe(n, uploadTotal)
		}}
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, reader)
	if err != nil {
		return nil, newError(CodeInit, err)
	}
	if body.size >= 0 && reader != nil {
		req.ContentLength = body.size
	}

	c.setHeaders(req, r, body, resumeOffset)
	c.debugRequest(r, corrID, req)

	httpClient := &http.Client{
		Transport:     transport,
		CheckRedirect: c.redirectPolicy(r, tc),
	}

	resp, doErr := httpClient.Do(req)
	if doErr != nil {
		return nil, c.terminalError(ctx, doErr)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, transferBufferSize))
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("closing response body", "error", err, "request", corrID)
		}
	}()

	c.debugResponse(r, corrID, resp)

	var responseBody []byte
	if r.DownloadFilePath != "" {
		if dlErr := c.streamDownload(ctx, r, corrID, resp, resumeOffset, disp, poll); dlErr != nil {
			return nil, dlErr
		}
		responseBody = []byte(downloadFinishedMarker)
	} else {
		responseBody, err = c.readBody(r, resp, poll)
		if err != nil {
			return nil, c.terminalError(ctx, err)
		}
	}

	var perf *PerformanceTiming
	if r.PerformanceTiming {
		perf = tc.profile(time.Since(start))
	}

	return assembleResponse(resp, responseBody, r.DownloadFilePath != "", perf), nil
}

// buildTransport creates the per-request transport session. Each call
// owns exactly one session; connections are never pooled across calls.
func (c *Client) buildTransport(r *Request, tc *traceCapture) (*http.Transport, *Error) {
	dialer := &net.Dialer{
		Timeout: time.Duration(r.ConnectTimeout) * time.Second,
	}

	transport := &http.Transport{
		DialContext:        dialer.DialContext,
		DisableKeepAlives:  true,
		DisableCompression: true, // Accept-Encoding and decoding are handled by the engine
		ForceAttemptHTTP2:  false,
	}

	if r.TLCP {
		cfg, err := buildTLCPConfig(r)
		if err != nil {
			return nil, newError(CodeInit, err)
		}
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			rawConn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			conn := tlcp.Client(rawConn, cfg)
			hsStart := time.Now()
			if err := conn.HandshakeContext(ctx); err != nil {
				_ = rawConn.Close()
				return nil, newError(CodeTLSHandshake, fmt.Errorf("tlcp handshake: %w", err))
			}
			tc.markTLSHandshake(time.Since(hsStart))

			return conn, nil
		}
	} else {
		cfg, err := buildTLSConfig(r)
		if err != nil {
			return nil, newError(CodeInit, err)
		}
		transport.TLSClientConfig = cfg
	}

	return transport, nil
}

// buildBody assembles the outbound payload: exactly one of no body,
// raw text/binary payload, multipart form, or streamed file upload.
func (c *Client) buildBody(r *Request) (*requestBody, *Error) {
	switch {
	case r.UploadFilePath != "":
		file, err := os.Open(r.UploadFilePath)
		if err != nil {
			return nil, errorf(CodeFileAccess, "opening upload file: %w", err)
		}

		var size int64 = -1
		if fi, err := file.Stat(); err == nil {
			size = fi.Size()
		}

		return &requestBody{
			reader:  bufio.NewReaderSize(file, transferBufferSize),
			size:    size,
			upload:  true,
			closers: []io.Closer{file},
		}, nil

	case r.multipart():
		return buildMultipartBody(r.FormFields)

	case len(r.Body) > 0 && r.bodyAllowed():
		return &requestBody{
			reader: bytes.NewReader(r.Body),
			size:   int64(len(r.Body)),
		}, nil

	default:
		// GET/DELETE, or nothing to send: any supplied body is ignored.
		return &requestBody{size: -1}, nil
	}
}

// buildMultipartBody streams the form fields through a pipe with an
// exact precomputed Content-Length, so upload progress has a known
// total. File parts are opened up front; a missing file fails the
// request before any bytes hit the wire.
func buildMultipartBody(fields []FormField) (*requestBody, *Error) {
	files := make(map[int]*os.File, len(fields))
	sizes := make(map[int]int64, len(fields))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for i, f := range fields {
		if f.FilePath == "" {
			continue
		}
		file, err := os.Open(f.FilePath)
		if err != nil {
			closeAll()
			return nil, errorf(CodeFileAccess, "opening form file %q: %w", f.FilePath, err)
		}
		fi, err := file.Stat()
		if err != nil {
			closeAll()
			return nil, errorf(CodeFileAccess, "stat form file %q: %w", f.FilePath, err)
		}
		files[i] = file
		sizes[i] = fi.Size()
	}

	boundary := multipart.NewWriter(io.Discard).Boundary()

	size, err := multipartLength(fields, sizes, boundary)
	if err != nil {
		closeAll()
		return nil, newError(CodeInternal, err)
	}

	pr, pw := io.Pipe()
	go func() {
		mw := multipart.NewWriter(pw)
		if err := mw.SetBoundary(boundary); err != nil {
			pw.CloseWithError(err)
			return
		}

		for i, f := range fields {
			part, err := mw.CreatePart(fieldHeader(f))
			if err != nil {
				pw.CloseWithError(err)
				return
			}

			switch {
			case f.FilePath != "":
				buf := make([]byte, transferBufferSize)
				if _, err := io.CopyBuffer(part, files[i], buf); err != nil {
					pw.CloseWithError(err)
					return
				}
			case len(f.Binary) > 0:
				if _, err := part.Write(f.Binary); err != nil {
					pw.CloseWithError(err)
					return
				}
			default:
				if _, err := io.WriteString(part, f.Text); err != nil {
					pw.CloseWithError(err)
					return
				}
			}
		}

		pw.CloseWithError(mw.Close())
	}()

	closers := make([]io.Closer, 0, len(files)+1)
	closers = append(closers, pr)
	for _, f := range files {
		closers = append(closers, f)
	}

	return &requestBody{
		reader:      pr,
		size:        size,
		contentType: "multipart/form-data; boundary=" + boundary,
		upload:      true,
		closers:     closers,
	}, nil
}

// multipartLength computes the exact encoded length: the structural
// bytes (boundaries, part headers, embedded payloads) are written to a
// counter, and file contents are accounted from their stat sizes
// without being read.
func multipartLength(fields []FormField, fileSizes map[int]int64, boundary string) (int64, error) {
	var cw countingWriter
	mw := multipart.NewWriter(&cw)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, err
	}

	var fileBytes int64
	for i, f := range fields {
		part, err := mw.CreatePart(fieldHeader(f))
		if err != nil {
			return 0, err
		}

		switch {
		case f.FilePath != "":
			fileBytes += fileSizes[i]
		case len(f.Binary) > 0:
			if _, err := part.Write(f.Binary); err != nil {
				return 0, err
			}
		default:
			if _, err := io.WriteString(part, f.Text); err != nil {
				return 0, err
			}
		}
	}

	if err := mw.Close(); err != nil {
		return 0, err
	}

	return cw.n + fileBytes, nil
}

// fieldHeader builds the part header for one form field. File and text
// parts carry the remote filename; embedded binary parts do not.
func fieldHeader(f FormField) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)

	disposition := fmt.Sprintf("form-data; name=%q", f.Name)
	if len(f.Binary) == 0 {
		disposition += fmt.Sprintf("; filename=%q", f.RemoteFileName)
	}
	h.Set("Content-Disposition", disposition)
	h.Set(contentTypeHeader, f.ContentType)

	return h
}

type countingWriter struct {
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	cw.n += int64(len(p))
	return len(p), nil
}

// setHeaders applies caller headers, the synthesized defaults, the
// range header for resumed downloads, and the accept-encoding the
// engine decodes itself.
func (c *Client) setHeaders(req *http.Request, r *Request, body *requestBody, resumeOffset int64) {
	req.Header.Set("Accept-Encoding", acceptEncodingHeader)

	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	if len(r.Headers) == 0 {
		switch {
		case r.UploadFilePath != "":
			req.Header.Set(contentTypeHeader, contentTypeOctet)
		case len(r.Body) > 0 && !r.BodyIsText:
			req.Header.Set(contentTypeHeader, contentTypeOctet)
		case r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete:
			req.Header.Set(contentTypeHeader, contentTypeJSON)
		default:
			req.Header.Set(contentTypeHeader, contentTypeForm)
		}
	}

	if body.contentType != "" {
		req.Header.Set(contentTypeHeader, body.contentType)
	}

	if r.DownloadFilePath != "" && resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
	}
}

// redirectPolicy follows redirects only for file transfers, matching
// the engine's session defaults; everything else returns the first
// response as-is.
func (c *Client) redirectPolicy(r *Request, tc *traceCapture) func(*http.Request, []*http.Request) error {
	follow := r.DownloadFilePath != "" || r.UploadFilePath != ""
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		tc.markRedirect()
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
}

// streamDownload writes the response body straight to the target file,
// appending past the resume offset. Partial content is kept on every
// failure so a later call can resume.
func (c *Client) streamDownload(ctx context.Context, r *Request, corrID string, resp *http.Response, resumeOffset int64, disp *dispatcher, poll func()) *Error {
	// Fail on HTTP error statuses before touching the file, surfacing
	// the real status code rather than a generic transport failure.
	if resp.StatusCode >= http.StatusBadRequest {
		return errorf(resp.StatusCode, "server returned %s", resp.Status)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	offset := resumeOffset
	if resumeOffset > 0 && resp.StatusCode != http.StatusPartialContent {
		// Server ignored the range request; start the file over.
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		offset = 0
	}

	file, err := os.OpenFile(r.DownloadFilePath, flags, 0o644)
	if err != nil {
		return errorf(CodeFileAccess, "opening download file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.Error("closing download file", "error", err, "request", corrID)
		}
	}()

	dlReporter, rerr := throttle.NewReporter(c.progressInterval, offset, func(current, total int64) {
		c.debugProgress(r, corrID, "download", current, total)
		if disp != nil {
			disp.send(current, total, current == total)
		}
	})
	if rerr != nil {
		return newError(CodeInternal, rerr)
	}

	// Progress counts wire bytes, not decoded bytes: the advertised
	// total is the wire length, and the two must share units for the
	// completion sample to ever reach it on a compressed download.
	total := resp.ContentLength
	wire := &countingReader{r: resp.Body, tick: func(n int64) {
		poll()
		dlReporter.Observe(n, total)
	}}

	decoded, derr := decodeBody(resp.Header.Get("Content-Encoding"), wire)
	if derr != nil {
		return newError(CodeReceive, derr)
	}

	buf := make([]byte, transferBufferSize)
	if _, err := io.CopyBuffer(file, decoded, buf); err != nil {
		return c.terminalError(ctx, err)
	}

	return nil
}

// readBody reads the in-memory response body, decoding any compressed
// encoding. Progress ticks here only poll cancellation: byte-level
// progress reporting is reserved for file transfers.
func (c *Client) readBody(r *Request, resp *http.Response, poll func()) ([]byte, error) {
	var body io.Reader = resp.Body
	if r.RequestID != 0 {
		body = &countingReader{r: body, tick: func(int64) { poll() }}
	}

	decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(decoded)
}

// decodeBody unwraps gzip and deflate encodings from the wire stream.
// Deflate is sniffed for the zlib wrapper some servers add despite the
// RFC.
func decodeBody(encoding string, body io.Reader) (io.Reader, error) {
	if i := strings.IndexByte(encoding, ','); i >= 0 {
		encoding = encoding[:i]
	}

	switch strings.TrimSpace(strings.ToLower(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case "deflate":
		br := bufio.NewReader(body)
		head, err := br.Peek(2)
		if err == nil && len(head) == 2 && head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("zlib reader: %w", err)
			}
			return zr, nil
		}
		return flate.NewReader(br), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// terminalError maps a transfer failure to the engine's error taxonomy,
// giving cancellation observed via the registry priority over the
// transport's own description of the aborted connection.
func (c *Client) terminalError(ctx context.Context, err error) *Error {
	if errors.Is(context.Cause(ctx), ErrCanceled) {
		return newError(CodeCanceled, ErrCanceled)
	}

	return transportError(err)
}
