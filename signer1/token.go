package signer1

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GalSened/wesign-signing/config"
)

// tokenTTL is the lifetime of minted authority tokens.
const tokenTTL = 5 * time.Minute

// mintToken produces the token presented to the authority. Tenants may opt
// to forward the caller-supplied bearer token as-is; otherwise a short-lived
// RS256 JWT with the certificate id as subject is minted from the tenant
// key. No key configured means an empty token.
func mintToken(details config.CompanySigner1Details, certificateID, callerToken string) (string, error) {
	if details.UseProvidedToken {
		return callerToken, nil
	}
	if details.TokenSigningKeyPEM == "" {
		return "", nil
	}

	key, err := parseRSAKey([]byte(details.TokenSigningKeyPEM))
	if err != nil {
		return "", fmt.Errorf("signer1: token signing key: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   certificateID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signer1: sign token: %w", err)
	}

	return signed, nil
}

func parseRSAKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not RSA")
	}
	return key, nil
}
