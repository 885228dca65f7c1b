// Package config holds tenant-scoped Signer1 configuration and the reader
// collaborator the signing engine consumes.
//
// Tenant configuration can change between calls, so the file-backed store
// reads fresh on every lookup. Nothing in this package caches credentials or
// endpoints.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TransportKind selects the wire protocol used to reach the Signer1
// authority for a tenant.
type TransportKind string

const (
	TransportREST TransportKind = "rest"
	TransportSOAP TransportKind = "soap"
)

// GraphicServiceDetails configures the optional external graphic-signing
// microservice.
type GraphicServiceDetails struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	CertificateID string `yaml:"certificate_id"`
	EncryptedPIN  string `yaml:"encrypted_pin"`
}

// CompanySigner1Details is the tenant-level signing-authority configuration.
type CompanySigner1Details struct {
	Endpoint  string        `yaml:"endpoint"`
	Transport TransportKind `yaml:"transport"`

	// Optional basic auth towards the authority. The password is stored
	// encrypted and decrypted only at call time.
	User              string `yaml:"user"`
	EncryptedPassword string `yaml:"encrypted_password"`

	// TokenSeparator splits composite SAML signer tokens into certificate
	// id and bearer token.
	TokenSeparator string `yaml:"token_separator"`

	// UseProvidedToken sends the caller-supplied bearer token as-is instead
	// of minting a short-lived JWT.
	UseProvidedToken bool `yaml:"use_provided_token"`

	// TokenSigningKeyPEM is the tenant private key used to mint the JWT
	// presented to the authority. Empty means an empty token is sent.
	TokenSigningKeyPEM string `yaml:"token_signing_key_pem"`

	// Legacy PIN overrides. At most one may be active per tenant.
	EncryptedPersistentPIN string `yaml:"encrypted_persistent_pin"`
	UseCertIDAsPIN         bool   `yaml:"use_cert_id_as_pin"`

	Graphic GraphicServiceDetails `yaml:"graphic"`
}

// Validate checks the tenant invariants. It is called by the file store on
// every read so a bad edit surfaces on the next sign operation, not at boot.
func (d CompanySigner1Details) Validate() error {
	if d.Endpoint == "" {
		return errors.New("config: signer1 endpoint is required")
	}
	switch d.Transport {
	case TransportREST, TransportSOAP, "":
	default:
		return fmt.Errorf("config: unknown transport %q", d.Transport)
	}
	if d.EncryptedPersistentPIN != "" && d.UseCertIDAsPIN {
		return errors.New("config: persistent pin and cert-id-as-pin overrides are mutually exclusive")
	}
	if d.Graphic.Enabled && d.Graphic.Endpoint == "" {
		return errors.New("config: graphic service enabled without endpoint")
	}
	return nil
}

// Store reads tenant signing configuration. Implementations must not cache
// across calls.
type Store interface {
	Signer1Details(ctx context.Context, companyID string) (CompanySigner1Details, error)
}

// FileStore reads per-tenant YAML files from a directory, one file per
// company id.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Signer1Details loads <dir>/<companyID>.yaml, applies environment
// overrides and validates the result.
func (s *FileStore) Signer1Details(ctx context.Context, companyID string) (CompanySigner1Details, error) {
	if err := ctx.Err(); err != nil {
		return CompanySigner1Details{}, err
	}

	path := filepath.Join(s.dir, companyID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return CompanySigner1Details{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var details CompanySigner1Details
	if err := yaml.Unmarshal(data, &details); err != nil {
		return CompanySigner1Details{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	overrideWithEnv(&details)

	if err := details.Validate(); err != nil {
		return CompanySigner1Details{}, err
	}

	return details, nil
}

// LoadEnv loads a .env file if one exists. Missing files are not an error;
// deployments that configure the process environment directly skip it.
func LoadEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func overrideWithEnv(details *CompanySigner1Details) {
	if v := os.Getenv("WESIGN_SIGNER1_ENDPOINT"); v != "" {
		details.Endpoint = v
	}
	if v := os.Getenv("WESIGN_SIGNER1_TRANSPORT"); v != "" {
		details.Transport = TransportKind(v)
	}
	if v := os.Getenv("WESIGN_SIGNER1_USER"); v != "" {
		details.User = v
	}
	if v := os.Getenv("WESIGN_GRAPHIC_ENDPOINT"); v != "" {
		details.Graphic.Endpoint = v
	}
}
