// Package client executes one HTTP(S) or TLCP request per call.
//
// # Building a Client
//
// Use [Build] with functional options:
//
//	c, err := client.Build(
//		client.WithLogger(slog.Default()),
//	)
//
// # Executing Requests
//
// Describe the call with a [Request] and run it:
//
//	resp, err := c.Do(ctx, &client.Request{
//		URL:        "https://api.example.com/v1/resource",
//		Method:     http.MethodPost,
//		Body:       []byte(`{"a":1}`),
//		BodyIsText: true,
//	})
//
// [Client.DoAsync] runs the same transfer on a background goroutine and
// delivers the outcome through a [Result] exactly once.
//
// # File Transfer
//
// Set DownloadFilePath to stream the response body to disk; an existing
// partial file resumes via a byte-range request. Set UploadFilePath to
// stream a file as the request body. Progress samples arrive through
// OnProgress at most once per second, except that the final sample is
// always delivered.
//
// # Cancellation
//
// Give the request a non-zero RequestID and call [Client.CancelRequest]
// with the same id from anywhere in the process. Cancellation is
// cooperative: it takes effect at the next progress tick and surfaces
// as an *[Error] with [CodeCanceled].
//
// # TLCP
//
// Set TLCP to use the national mutual-auth protocol variant. The client
// identity is resolved under ClientCertPath by convention:
// client_enc.{crt,key} and client_sign.{crt,key} for TLCP, or
// client.{crt,key} for standard TLS.
//
// The server chain is verified against CAPath (or the system roots)
// unless InsecureSkipVerify is set. Hostname verification is never
// performed; only the certificate chain is checked. This is a
// documented limitation of the engine.
package client
