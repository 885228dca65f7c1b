// Package testpki generates throwaway signing material for tests.
package testpki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"
)

// Identity is a self-signed certificate with its private key.
type Identity struct {
	Certificate *x509.Certificate
	Key         *rsa.PrivateKey
}

// NewIdentity generates a fresh RSA-2048 self-signed signing certificate.
func NewIdentity(t *testing.T, commonName string) *Identity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	return &Identity{Certificate: cert, Key: key}
}

// StaticPDF returns a small, well-formed PDF 2.0 document.
func StaticPDF(t *testing.T) []byte {
	t.Helper()

	data, err := base64.StdEncoding.DecodeString(staticPDFBase64)
	if err != nil {
		t.Fatalf("decode static pdf: %v", err)
	}
	return data
}
