// Package config defines the YAML request profile consumed by the
// command-line front end. A profile describes one transfer; flags on
// the command line override individual fields.
package config

import "github.com/chenchl/gmhttp/client"

// Config is the root of a request profile.
type Config struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Body           string            `yaml:"body,omitempty"`
	ConnectTimeout int               `yaml:"connect_timeout"`
	ReadTimeout    int               `yaml:"read_timeout"`

	Download string      `yaml:"download,omitempty"`
	Upload   string      `yaml:"upload,omitempty"`
	Form     []FormField `yaml:"form,omitempty"`

	TLS TLS `yaml:"tls"`

	RequestID int32 `yaml:"request_id"`
	Progress  bool  `yaml:"progress"`
	Timing    bool  `yaml:"timing"`
	Debug     bool  `yaml:"debug"`
}

// FormField is one multipart part in a profile.
type FormField struct {
	Name           string `yaml:"name"`
	ContentType    string `yaml:"content_type"`
	RemoteFileName string `yaml:"remote_file_name,omitempty"`
	FilePath       string `yaml:"file_path,omitempty"`
	Text           string `yaml:"text,omitempty"`
}

// TLS groups the transport-security settings of a profile. The server
// chain is verified by default; insecure opts out.
type TLS struct {
	TLCP        bool   `yaml:"tlcp"`
	CAPath      string `yaml:"ca_path,omitempty"`
	ClientCerts string `yaml:"client_certs,omitempty"`
	Insecure    bool   `yaml:"insecure"`
}

// DefaultConfig returns a profile with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Method: "GET",
	}
}

// Request converts the profile into an engine descriptor.
func (c *Config) Request() *client.Request {
	fields := make([]client.FormField, len(c.Form))
	for i, f := range c.Form {
		fields[i] = client.FormField{
			Name:           f.Name,
			ContentType:    f.ContentType,
			RemoteFileName: f.RemoteFileName,
			FilePath:       f.FilePath,
			Text:           f.Text,
		}
	}
	if len(fields) == 0 {
		fields = nil
	}

	return &client.Request{
		URL:                c.URL,
		Method:             c.Method,
		Headers:            c.Headers,
		Body:               []byte(c.Body),
		BodyIsText:         true,
		FormFields:         fields,
		ConnectTimeout:     c.ConnectTimeout,
		ReadTimeout:        c.ReadTimeout,
		CAPath:             c.TLS.CAPath,
		ClientCertPath:     c.TLS.ClientCerts,
		TLCP:               c.TLS.TLCP,
		InsecureSkipVerify: c.TLS.Insecure,
		RequestID:          c.RequestID,
		DownloadFilePath:   c.Download,
		UploadFilePath:     c.Upload,
		PerformanceTiming:  c.Timing,
		Debug:              c.Debug,
	}
}
