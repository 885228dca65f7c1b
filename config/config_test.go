package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GalSened/wesign-signing/config"
)

const tenantYAML = `
endpoint: https://signer1.example.com/service
transport: rest
user: acme
encrypted_password: "Zm9v"
token_separator: "|"
graphic:
  enabled: true
  endpoint: https://graphic.example.com
  certificate_id: cert-17
  encrypted_pin: "YmFy"
`

func writeTenant(t *testing.T, dir, company, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, company+".yaml"), []byte(content), 0o600))
}

func TestFileStoreReadsTenant(t *testing.T) {
	dir := t.TempDir()
	writeTenant(t, dir, "acme", tenantYAML)

	store := config.NewFileStore(dir)
	details, err := store.Signer1Details(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "https://signer1.example.com/service", details.Endpoint)
	assert.Equal(t, config.TransportREST, details.Transport)
	assert.Equal(t, "|", details.TokenSeparator)
	assert.True(t, details.Graphic.Enabled)
	assert.Equal(t, "cert-17", details.Graphic.CertificateID)
}

func TestFileStoreReadsFreshPerCall(t *testing.T) {
	dir := t.TempDir()
	writeTenant(t, dir, "acme", tenantYAML)

	store := config.NewFileStore(dir)
	first, err := store.Signer1Details(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, "acme", first.User)

	writeTenant(t, dir, "acme", "endpoint: https://other.example.com\nuser: fresh\n")

	second, err := store.Signer1Details(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "fresh", second.User)
	assert.Equal(t, "https://other.example.com", second.Endpoint)
}

func TestFileStoreUnknownTenant(t *testing.T) {
	store := config.NewFileStore(t.TempDir())

	_, err := store.Signer1Details(context.Background(), "missing")
	assert.Error(t, err)
}

func TestValidateMutuallyExclusivePinOverrides(t *testing.T) {
	details := config.CompanySigner1Details{
		Endpoint:               "https://signer1.example.com",
		EncryptedPersistentPIN: "abc",
		UseCertIDAsPIN:         true,
	}

	assert.Error(t, details.Validate())

	details.UseCertIDAsPIN = false
	assert.NoError(t, details.Validate())
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	details := config.CompanySigner1Details{
		Endpoint:  "https://signer1.example.com",
		Transport: "carrier-pigeon",
	}

	assert.Error(t, details.Validate())
}

func TestValidateGraphicNeedsEndpoint(t *testing.T) {
	details := config.CompanySigner1Details{
		Endpoint: "https://signer1.example.com",
		Graphic:  config.GraphicServiceDetails{Enabled: true},
	}

	assert.Error(t, details.Validate())
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeTenant(t, dir, "acme", tenantYAML)

	t.Setenv("WESIGN_SIGNER1_ENDPOINT", "https://override.example.com")

	details, err := config.NewFileStore(dir).Signer1Details(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", details.Endpoint)
}
