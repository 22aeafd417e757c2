package tls

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	stdtls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"httpclient/transport/pipe"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type TLSTestSuite struct {
	suite.Suite

	clock clock.Clock
	dir   string

	root       *x509.Certificate
	rootKey    crypto.PrivateKey
	serverCert stdtls.Certificate
}

func TestTLSTestSuite(t *testing.T) {
	suite.Run(t, new(TLSTestSuite))
}

func (s *TLSTestSuite) SetupTest() {
	s.clock = clock.New()
	s.dir = s.T().TempDir()

	s.root, s.rootKey = newRootCert(s.clock)
	cert, der, priv := issueNewCert(defaultCertTemplate(s.clock), s.root, s.rootKey)
	s.serverCert = stdtls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
		Leaf:        cert,
	}
}

func (s *TLSTestSuite) TearDownTest() {
	goleak.VerifyNone(s.T())
}

func (s *TLSTestSuite) writeFile(name string, blocks ...*pem.Block) string {
	var data []byte
	for _, b := range blocks {
		data = append(data, pem.EncodeToMemory(b)...)
	}
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, data, 0o600))
	return path
}

func (s *TLSTestSuite) rootBlock() *pem.Block {
	return &pem.Block{Type: "CERTIFICATE", Bytes: s.root.Raw}
}

// handshake runs a TLS server with serverCfg on one end of a pipe
// and the client handshake on the other.
func (s *TLSTestSuite) handshake(cfg *stdtls.Config, serverCfg *stdtls.Config) (conn *stdtls.Conn, clientErr, serverErr error) {
	c1, c2 := pipe.Pipe("client", "server", s.clock)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server := stdtls.Server(c2, serverCfg)
		defer server.Close()

		if serverErr = server.HandshakeContext(context.Background()); serverErr != nil {
			return
		}
		// Echo a single message back.
		buf := make([]byte, 5)
		if _, err := io.ReadFull(server, buf); err != nil {
			serverErr = err
			return
		}
		if _, serverErr = server.Write(buf); serverErr != nil {
			return
		}
		// Wait for close_notify.
		_, serverErr = io.Copy(io.Discard, server)
	}()

	conn, clientErr = Client(context.Background(), c1, cfg)
	if clientErr == nil {
		_, werr := conn.Write([]byte("hello"))
		s.Require().NoError(werr)

		buf := make([]byte, 5)
		_, rerr := io.ReadFull(conn, buf)
		s.Require().NoError(rerr)
		s.Equal("hello", string(buf))

		conn.Close()
	}
	wg.Wait()

	return conn, clientErr, serverErr
}

func (s *TLSTestSuite) serverConfig() *stdtls.Config {
	return &stdtls.Config{
		Certificates: []stdtls.Certificate{s.serverCert},
		// Tickets sent after the handshake would stall the unbuffered pipe.
		SessionTicketsDisabled: true,
	}
}

func (s *TLSTestSuite) TestHandshakeWithCAFile() {
	opts := DefaultOptions
	opts.CAFile = s.writeFile("ca.pem", s.rootBlock())

	cfg, err := BuildConfig(opts, "www.example.com")
	s.Require().NoError(err)

	conn, err, serverErr := s.handshake(cfg, s.serverConfig())
	s.Require().NoError(err)
	s.NoError(serverErr)
	s.Equal("www.example.com", conn.ConnectionState().ServerName)
}

func (s *TLSTestSuite) TestHandshakeWithCAPath() {
	s.writeFile("ca.pem", s.rootBlock())
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "README"), []byte("not a cert"), 0o600))

	opts := DefaultOptions
	opts.CAPath = s.dir

	cfg, err := BuildConfig(opts, "www.example.com")
	s.Require().NoError(err)

	_, err, serverErr := s.handshake(cfg, s.serverConfig())
	s.NoError(err)
	s.NoError(serverErr)
}

func (s *TLSTestSuite) TestHandshakeUnknownAuthority() {
	// Empty CA directory: nothing is trusted.
	opts := DefaultOptions
	opts.CAPath = s.T().TempDir()

	cfg, err := BuildConfig(opts, "www.example.com")
	s.Require().NoError(err)

	_, err, serverErr := s.handshake(cfg, s.serverConfig())
	s.Error(err)
	s.Error(serverErr)

	var unknown x509.UnknownAuthorityError
	s.ErrorAs(err, &unknown)
}

func (s *TLSTestSuite) TestHandshakeNameMismatch() {
	opts := DefaultOptions
	opts.CAFile = s.writeFile("ca.pem", s.rootBlock())

	cfg, err := BuildConfig(opts, "other.example.com")
	s.Require().NoError(err)

	_, err, _ = s.handshake(cfg, s.serverConfig())
	s.Error(err)
}

func (s *TLSTestSuite) TestHandshakeWithoutVerification() {
	opts := DefaultOptions
	opts.VerifyPeer = false

	cfg, err := BuildConfig(opts, "other.example.com")
	s.Require().NoError(err)

	_, err, serverErr := s.handshake(cfg, s.serverConfig())
	s.NoError(err)
	s.NoError(serverErr)
}

func (s *TLSTestSuite) TestClientCertificate() {
	template := defaultCertTemplate(s.clock)
	template.SerialNumber = big.NewInt(3)
	template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	_, der, priv := issueNewCert(template, s.root, s.rootKey)

	keyDER, err := x509.MarshalECPrivateKey(priv.(*ecdsa.PrivateKey))
	s.Require().NoError(err)

	//nolint:staticcheck
	keyBlock, err := x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", keyDER, []byte("secret"), x509.PEMCipherAES256)
	s.Require().NoError(err)

	certFile := s.writeFile("client.pem", &pem.Block{Type: "CERTIFICATE", Bytes: der}, keyBlock)

	roots := x509.NewCertPool()
	roots.AddCert(s.root)
	serverCfg := s.serverConfig()
	serverCfg.ClientAuth = stdtls.RequireAndVerifyClientCert
	serverCfg.ClientCAs = roots

	s.Run("with passphrase", func() {
		opts := DefaultOptions
		opts.CAFile = s.writeFile("ca.pem", s.rootBlock())
		opts.CertFile = certFile
		opts.Passphrase = "secret"

		cfg, err := BuildConfig(opts, "www.example.com")
		s.Require().NoError(err)
		s.Require().Len(cfg.Certificates, 1)

		_, err, serverErr := s.handshake(cfg, serverCfg)
		s.NoError(err)
		s.NoError(serverErr)
	})

	s.Run("wrong passphrase", func() {
		opts := DefaultOptions
		opts.CertFile = certFile
		opts.Passphrase = "nope"

		_, err := BuildConfig(opts, "www.example.com")
		s.Error(err)
	})

	s.Run("missing passphrase", func() {
		opts := DefaultOptions
		opts.CertFile = certFile

		_, err := BuildConfig(opts, "www.example.com")
		s.Error(err)
	})
}

func (s *TLSTestSuite) TestBuildConfig() {
	s.Run("server name override", func() {
		opts := DefaultOptions
		opts.ServerName = "override.example.com"

		cfg, err := BuildConfig(opts, "www.example.com")
		s.Require().NoError(err)
		s.Equal("override.example.com", cfg.ServerName)
		s.False(cfg.InsecureSkipVerify)
		s.Nil(cfg.RootCAs)
	})

	s.Run("IP literal", func() {
		cfg, err := BuildConfig(DefaultOptions, "[::1]")
		s.Require().NoError(err)
		s.Equal("::1", cfg.ServerName)
	})

	s.Run("version bounds", func() {
		opts := DefaultOptions
		opts.MinVersion = stdtls.VersionTLS13
		opts.MaxVersion = stdtls.VersionTLS12

		_, err := BuildConfig(opts, "www.example.com")
		s.Error(err)
	})

	s.Run("missing CA file", func() {
		opts := DefaultOptions
		opts.CAFile = filepath.Join(s.dir, "missing.pem")

		_, err := BuildConfig(opts, "www.example.com")
		s.Error(err)
	})

	s.Run("CA file without certificate", func() {
		path := filepath.Join(s.dir, "empty.pem")
		s.Require().NoError(os.WriteFile(path, []byte("garbage"), 0o600))

		opts := DefaultOptions
		opts.CAFile = path

		_, err := BuildConfig(opts, "www.example.com")
		s.Error(err)
	})
}

func newRootCert(clock clock.Clock) (*x509.Certificate, crypto.PrivateKey) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Example Root CA",
			Organization: []string{"Example Org"},
		},
		NotBefore:             clock.Now().Add(-time.Minute),
		NotAfter:              clock.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		panic(err)
	}

	cert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		panic(err)
	}

	return cert, priv
}

func issueNewCert(template, parent *x509.Certificate, parentKey crypto.PrivateKey) (*x509.Certificate, []byte, crypto.PrivateKey) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, parent, &priv.PublicKey, parentKey)
	if err != nil {
		panic(err)
	}

	cert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		panic(err)
	}

	return cert, derBytes, priv
}

func defaultCertTemplate(clock clock.Clock) *x509.Certificate {
	return &x509.Certificate{
		DNSNames:     []string{"www.example.com"},
		SerialNumber: big.NewInt(2),
		Subject: pkix.Name{
			CommonName:   "example.com",
			Organization: []string{"Example Org"},
		},
		NotBefore:             clock.Now().Add(-time.Minute),
		NotAfter:              clock.Now().AddDate(1, 0, 0), // available for an year.
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
}
