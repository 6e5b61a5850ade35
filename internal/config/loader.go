package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML request profile.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return cfg, nil
}

// validate checks the profile for errors the engine would otherwise
// reject with a less actionable message.
func validate(cfg *Config) error {
	if cfg.URL == "" {
		return fmt.Errorf("url is required")
	}
	if cfg.Method == "" {
		cfg.Method = "GET"
	}

	if cfg.Upload != "" && cfg.Download != "" {
		return fmt.Errorf("upload and download cannot be combined")
	}

	for i, f := range cfg.Form {
		if f.Name == "" {
			return fmt.Errorf("form[%d]: name is required", i)
		}
		if f.ContentType == "" {
			return fmt.Errorf("form[%d]: content_type is required", i)
		}
		if (f.FilePath == "") == (f.Text == "") {
			return fmt.Errorf("form[%d]: exactly one of file_path or text is required", i)
		}
	}

	if cfg.TLS.TLCP && cfg.TLS.ClientCerts == "" {
		return fmt.Errorf("tls.client_certs is required for tlcp")
	}

	return nil
}
