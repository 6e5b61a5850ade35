// Package cli implements the gmhttp command-line front end: a thin
// shell around the client engine for one-off transfers and for
// exercising TLCP endpoints from scripts.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "gmhttp",
	Short: "HTTP(S) and TLCP transfer client",
	Long: `gmhttp executes single HTTP(S) or TLCP transfers: plain requests,
multipart forms, resumable downloads, and streamed uploads.

Get started:
  gmhttp send --url https://example.com/api
  gmhttp send --config profile.yaml
  gmhttp send --url https://host/file --download out.bin --progress`,
	Version: fmt.Sprintf("%s (built %s)", version, buildTime),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// SetVersion sets the version info stamped at build time.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}
