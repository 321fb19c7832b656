package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func selfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "wifid.local"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"wifid.local"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func TestNewTLSConfigFromMemory(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)

	config, err := NewTLSConfigFromMemory(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("NewTLSConfigFromMemory() error = %v", err)
	}
	if len(config.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(config.Certificates))
	}
	if config.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", config.MinVersion)
	}

	if _, err := NewTLSConfigFromMemory(certPEM, []byte("not a key")); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestNewTLSConfigFromFiles(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := NewTLSConfig(certPath, keyPath)
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v", err)
	}
	if info := GetTLSInfo(config); info["enabled"] != true || info["num_certs"] != 1 {
		t.Errorf("GetTLSInfo() = %v", info)
	}

	if _, err := NewTLSConfig(filepath.Join(dir, "missing.pem"), keyPath); err == nil {
		t.Error("expected error for missing certificate")
	}
}
