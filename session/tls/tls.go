// Package tls configures and negotiates client-side Transport Layer Security
// on top of an established stream connection.
//
// Reference:
// - https://datatracker.ietf.org/doc/html/rfc8446
// - https://datatracker.ietf.org/doc/html/rfc6066
package tls

import (
	"context"
	stdtls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Options struct {
	// CertFile is a PEM file holding the client certificate chain
	// followed by its private key. Empty means no client certificate.
	CertFile string
	// Passphrase decrypts an encrypted private key in CertFile.
	Passphrase string

	VerifyPeer bool
	// CAFile is a PEM bundle of trusted roots.
	CAFile string
	// CAPath is a directory whose PEM files are all trusted roots.
	CAPath string

	// Zero means the crypto/tls default.
	MinVersion uint16
	MaxVersion uint16

	// ServerName overrides the name used for SNI and verification.
	ServerName string
}

var DefaultOptions = Options{
	VerifyPeer: true,
	MinVersion: stdtls.VersionTLS12,
}

// BuildConfig creates a client [stdtls.Config] for serverName.
// When neither CAFile nor CAPath is set, the system roots are used.
func BuildConfig(opts Options, serverName string) (*stdtls.Config, error) {
	if opts.MinVersion != 0 && opts.MaxVersion != 0 && opts.MinVersion > opts.MaxVersion {
		return nil, errors.Errorf("min version %s is above max version %s",
			stdtls.VersionName(opts.MinVersion), stdtls.VersionName(opts.MaxVersion))
	}

	if opts.ServerName != "" {
		serverName = opts.ServerName
	}
	// IP literals come bracketed from URIs.
	serverName = strings.TrimSuffix(strings.TrimPrefix(serverName, "["), "]")

	cfg := &stdtls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: !opts.VerifyPeer,
		MinVersion:         opts.MinVersion,
		MaxVersion:         opts.MaxVersion,
	}

	roots, err := loadRoots(opts.CAFile, opts.CAPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading trusted roots")
	}
	cfg.RootCAs = roots

	if opts.CertFile != "" {
		cert, err := loadClientCert(opts.CertFile, opts.Passphrase)
		if err != nil {
			return nil, errors.Wrap(err, "loading client certificate")
		}
		cfg.Certificates = []stdtls.Certificate{cert}
	}

	return cfg, nil
}

// Client performs the client handshake over conn.
// conn is closed when the handshake fails.
func Client(ctx context.Context, conn net.Conn, cfg *stdtls.Config) (*stdtls.Conn, error) {
	tlsConn := stdtls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "handshake failed")
	}
	return tlsConn, nil
}

func loadRoots(caFile, caPath string) (*x509.CertPool, error) {
	if caFile == "" && caPath == "" {
		return nil, nil
	}

	pool := x509.NewCertPool()

	if caFile != "" {
		pemBytes, err := os.ReadFile(caFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading CA file")
		}
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, errors.Errorf("no certificate found in %s", caFile)
		}
	}

	if caPath != "" {
		entries, err := os.ReadDir(caPath)
		if err != nil {
			return nil, errors.Wrap(err, "reading CA path")
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			pemBytes, err := os.ReadFile(filepath.Join(caPath, entry.Name()))
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", entry.Name())
			}
			// Files that are not certificates (hash links, READMEs) are skipped.
			pool.AppendCertsFromPEM(pemBytes)
		}
	}

	return pool, nil
}

func loadClientCert(certFile, passphrase string) (stdtls.Certificate, error) {
	pemBytes, err := os.ReadFile(certFile)
	if err != nil {
		return stdtls.Certificate{}, errors.Wrap(err, "reading cert file")
	}

	var certPEM, keyPEM []byte
	for rest := pemBytes; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		if block.Type == "CERTIFICATE" {
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
			continue
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}

		//nolint:staticcheck // Legacy encrypted PEM is what passphrase-protected key files use.
		if x509.IsEncryptedPEMBlock(block) {
			if passphrase == "" {
				return stdtls.Certificate{}, errors.New("private key is encrypted but no passphrase is given")
			}
			//nolint:staticcheck
			der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
			if err != nil {
				return stdtls.Certificate{}, errors.Wrap(err, "decrypting private key")
			}
			block = &pem.Block{Type: block.Type, Bytes: der}
		}
		keyPEM = pem.EncodeToMemory(block)
	}

	if certPEM == nil {
		return stdtls.Certificate{}, errors.New("no certificate found")
	}
	if keyPEM == nil {
		return stdtls.Certificate{}, errors.New("no private key found")
	}

	cert, err := stdtls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return stdtls.Certificate{}, errors.Wrap(err, "parsing key pair")
	}
	return cert, nil
}
