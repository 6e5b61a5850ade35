package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	"gitee.com/Trisia/gotlcp/tlcp"
	"github.com/emmansun/gmsm/smx509"
)

// Client identity files resolved under Request.ClientCertPath.
const (
	clientCertFile = "client.crt"
	clientKeyFile  = "client.key"

	tlcpEncCertFile  = "client_enc.crt"
	tlcpEncKeyFile   = "client_enc.key"
	tlcpSignCertFile = "client_sign.crt"
	tlcpSignKeyFile  = "client_sign.key"
)

// buildTLSConfig assembles the standard TLS client configuration.
//
// Hostname verification is never performed: the peer chain is verified
// against the trust root, but the certificate's names are not matched
// against the target host. This mirrors the engine's documented
// limitation.
func buildTLSConfig(r *Request) (*tls.Config, error) {
	cfg := &tls.Config{
		// Disables the stack's combined chain+hostname check; chain
		// verification is reinstated below unless skipped.
		InsecureSkipVerify: true,
	}

	if !r.InsecureSkipVerify {
		roots, err := loadRootPool(r.CAPath)
		if err != nil {
			return nil, err
		}
		cfg.VerifyPeerCertificate = chainOnlyVerifier(roots)
	}

	if r.ClientCertPath != "" {
		certFile := filepath.Join(r.ClientCertPath, clientCertFile)
		keyFile := filepath.Join(r.ClientCertPath, clientKeyFile)
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// buildTLCPConfig assembles the TLCP client configuration. The protocol
// version is fixed by the TLCP stack itself; there is nothing to
// negotiate down from. Mutual auth requires the four-file signing plus
// encryption identity under ClientCertPath.
func buildTLCPConfig(r *Request) (*tlcp.Config, error) {
	cfg := &tlcp.Config{
		InsecureSkipVerify: true,
	}

	if !r.InsecureSkipVerify {
		if r.CAPath == "" {
			return nil, fmt.Errorf("tlcp server verification requires caPath")
		}
		roots, err := loadGMRootPool(r.CAPath)
		if err != nil {
			return nil, err
		}
		cfg.VerifyPeerCertificate = gmChainOnlyVerifier(roots)
	}

	if r.ClientCertPath != "" {
		signCert, err := tlcp.LoadX509KeyPair(
			filepath.Join(r.ClientCertPath, tlcpSignCertFile),
			filepath.Join(r.ClientCertPath, tlcpSignKeyFile),
		)
		if err != nil {
			return nil, fmt.Errorf("loading tlcp signing key pair: %w", err)
		}
		encCert, err := tlcp.LoadX509KeyPair(
			filepath.Join(r.ClientCertPath, tlcpEncCertFile),
			filepath.Join(r.ClientCertPath, tlcpEncKeyFile),
		)
		if err != nil {
			return nil, fmt.Errorf("loading tlcp encryption key pair: %w", err)
		}
		cfg.Certificates = []tlcp.Certificate{signCert, encCert}
	}

	return cfg, nil
}

// loadRootPool reads the PEM bundle at caPath, or falls back to the
// system pool when no path was given.
func loadRootPool(caPath string) (*x509.CertPool, error) {
	if caPath == "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("loading system cert pool: %w", err)
		}
		return pool, nil
	}

	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("reading ca bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca bundle %s contains no usable certificates", caPath)
	}

	return pool, nil
}

func loadGMRootPool(caPath string) (*smx509.CertPool, error) {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("reading ca bundle: %w", err)
	}

	pool := smx509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca bundle %s contains no usable certificates", caPath)
	}

	return pool, nil
}

// chainOnlyVerifier verifies the presented chain against roots without
// matching hostnames.
func chainOnlyVerifier(roots *x509.CertPool) func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("server presented no certificates")
		}

		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("parsing server certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}

		if _, err := certs[0].Verify(opts); err != nil {
			return fmt.Errorf("verifying server chain: %w", err)
		}

		return nil
	}
}

func gmChainOnlyVerifier(roots *smx509.CertPool) func(rawCerts [][]byte, verifiedChains [][]*smx509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*smx509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("server presented no certificates")
		}

		certs := make([]*smx509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := smx509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("parsing server certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		opts := smx509.VerifyOptions{
			Roots:         roots,
			Intermediates: smx509.NewCertPool(),
		}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}

		if _, err := certs[0].Verify(opts); err != nil {
			return fmt.Errorf("verifying server chain: %w", err)
		}

		return nil
	}
}
