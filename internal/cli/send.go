package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenchl/gmhttp/client"
	"github.com/chenchl/gmhttp/internal/config"
)

var (
	configPath string

	flagURL            string
	flagMethod         string
	flagHeaders        []string
	flagData           string
	flagDownload       string
	flagUpload         string
	flagConnectTimeout int
	flagReadTimeout    int
	flagCAPath         string
	flagCertDir        string
	flagTLCP           bool
	flagInsecure       bool
	flagRequestID      int32
	flagProgress       bool
	flagTiming         bool
	flagDebug          bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Execute a single transfer",
	Long: `Execute one HTTP(S) or TLCP transfer described by flags, a YAML
profile, or both. Flags override the profile.

Example:
  gmhttp send --url https://api.example.com/v1/items -X POST -d '{"a":1}'
  gmhttp send --config profile.yaml --debug
  gmhttp send --url https://host/big.iso --download big.iso --progress`,
	RunE:         runSend,
	SilenceUsage: true,
}

func init() {
	f := sendCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to a YAML request profile")
	f.StringVar(&flagURL, "url", "", "Target URL")
	f.StringVarP(&flagMethod, "method", "X", "", "HTTP method (GET, POST, PUT, DELETE)")
	f.StringArrayVarP(&flagHeaders, "header", "H", nil, "Request header as 'Key: Value' (repeatable)")
	f.StringVarP(&flagData, "data", "d", "", "Request body")
	f.StringVarP(&flagDownload, "download", "o", "", "Stream the response body to this file")
	f.StringVarP(&flagUpload, "upload", "T", "", "Stream this file as the request body")
	f.IntVar(&flagConnectTimeout, "connect-timeout", 0, "Connection timeout in seconds")
	f.IntVar(&flagReadTimeout, "read-timeout", 0, "Transfer timeout in seconds")
	f.StringVar(&flagCAPath, "ca", "", "PEM bundle used as the trust root")
	f.StringVar(&flagCertDir, "cert-dir", "", "Directory holding the client certificates")
	f.BoolVar(&flagTLCP, "tlcp", false, "Use the TLCP protocol variant")
	f.BoolVarP(&flagInsecure, "insecure", "k", false, "Skip server certificate chain verification")
	f.Int32Var(&flagRequestID, "request-id", 0, "Cancellation id for this transfer")
	f.BoolVar(&flagProgress, "progress", false, "Report transfer progress on stderr")
	f.BoolVar(&flagTiming, "timing", false, "Print the timing profile after the transfer")
	f.BoolVar(&flagDebug, "debug", false, "Log protocol-level events")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadProfile()
	if err != nil {
		return err
	}

	req := cfg.Request()
	if flagProgress {
		req.OnProgress = printProgress
	}

	level := slog.LevelWarn
	if req.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := client.Build(client.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build client: %w", err)
	}

	// Ctrl-C aborts the in-flight transfer; a partial download stays on
	// disk and resumes on the next invocation.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := c.Do(ctx, req)
	if flagProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		var e *client.Error
		if errors.As(err, &e) {
			return fmt.Errorf("transfer failed (code %d): %s", e.Code, e.Message)
		}
		return err
	}

	return printResponse(resp)
}

// loadProfile builds the effective profile: the config file when given,
// overlaid with whatever flags were set.
func loadProfile() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flagURL != "" {
		cfg.URL = flagURL
	}
	if flagMethod != "" {
		cfg.Method = strings.ToUpper(flagMethod)
	}
	if flagData != "" {
		cfg.Body = flagData
	}
	if flagDownload != "" {
		cfg.Download = flagDownload
	}
	if flagUpload != "" {
		cfg.Upload = flagUpload
	}
	if flagConnectTimeout > 0 {
		cfg.ConnectTimeout = flagConnectTimeout
	}
	if flagReadTimeout > 0 {
		cfg.ReadTimeout = flagReadTimeout
	}
	if flagCAPath != "" {
		cfg.TLS.CAPath = flagCAPath
	}
	if flagCertDir != "" {
		cfg.TLS.ClientCerts = flagCertDir
	}
	if flagTLCP {
		cfg.TLS.TLCP = true
	}
	if flagInsecure {
		cfg.TLS.Insecure = true
	}
	if flagRequestID != 0 {
		cfg.RequestID = flagRequestID
	}
	if flagTiming {
		cfg.Timing = true
	}
	if flagDebug {
		cfg.Debug = true
	}

	for _, h := range flagHeaders {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q, want 'Key: Value'", h)
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("no target: set --url or provide a profile with --config")
	}

	return cfg, nil
}

func printProgress(current, total int64) {
	fmt.Fprintf(os.Stderr, "\r%d / %d bytes (%.1f%%)", current, total,
		float64(current)/float64(total)*100)
}

func printResponse(resp *client.Response) error {
	fmt.Fprintf(os.Stderr, "HTTP %d\n", resp.StatusCode)

	if resp.Binary {
		if _, err := os.Stdout.Write(resp.Body); err != nil {
			return err
		}
	} else {
		fmt.Println(resp.Text())
	}

	if resp.Performance != nil {
		out, err := json.MarshalIndent(resp.Performance, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, string(out))
	}

	return nil
}
