// Package credential resolves caller-supplied Signer1 credentials into the
// effective certificate id, PIN and bearer token used on the wire.
//
// Three legacy encodings coexist: plain id+pin, a composite SAML token that
// concatenates certificate id and bearer token with a tenant-configured
// separator, and an Active-Directory identity resolved upstream. Resolution
// never fails hard; undecodable input degrades to a passthrough outcome and
// the credential-verification step reports the failure.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GalSened/wesign-signing/config"
	"github.com/GalSened/wesign-signing/secrets"
)

// Signer1Credential is the caller-supplied signer authentication bundle.
// Exactly one of {CertificateID+Password, SignerToken, ShouldUseADDetails}
// is authoritative; Resolve enforces the priority order.
type Signer1Credential struct {
	CertificateID string
	Password      string

	// SignerToken is an opaque encrypted token that may itself encode
	// certificate id and bearer token.
	SignerToken string

	// ShouldUseADDetails marks credentials whose certificate id was already
	// derived from an Active-Directory principal upstream.
	ShouldUseADDetails bool
}

// Outcome records which resolution branch produced the result.
type Outcome int

const (
	// OutcomeDirect means the plain id+password branch applied with no
	// token decoding.
	OutcomeDirect Outcome = iota
	// OutcomeActiveDirectory means resolution was skipped entirely.
	OutcomeActiveDirectory
	// OutcomeComposite means the token decoded into certificate id and
	// bearer token.
	OutcomeComposite
	// OutcomeSinglePart means the token decoded into a certificate id only.
	OutcomeSinglePart
	// OutcomePassthrough means the token could not be decoded; inputs were
	// left unchanged and verification will report the failure.
	OutcomePassthrough
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDirect:
		return "direct"
	case OutcomeActiveDirectory:
		return "active-directory"
	case OutcomeComposite:
		return "composite"
	case OutcomeSinglePart:
		return "single-part"
	case OutcomePassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrNoSeparator reports a decrypted token that does not contain the tenant
// separator.
var ErrNoSeparator = errors.New("credential: token does not contain tenant separator")

// ErrEmptyParts reports a decrypted token that splits into no usable parts.
var ErrEmptyParts = errors.New("credential: token split into no non-empty parts")

// Resolved is the effective credential after resolution.
type Resolved struct {
	CertificateID string
	PIN           string
	BearerToken   string

	Outcome Outcome

	// Reason is set only for OutcomePassthrough and explains why decoding
	// degraded to a no-op.
	Reason error
}

// Resolve applies the legacy decoding rules in priority order and then the
// tenant PIN overrides. It never returns an error: ambiguous or undecodable
// input yields OutcomePassthrough and the failure surfaces at verification.
func Resolve(cred Signer1Credential, details config.CompanySigner1Details, decrypt secrets.DecryptFunc) Resolved {
	resolved := Resolved{
		CertificateID: cred.CertificateID,
		PIN:           cred.Password,
		Outcome:       OutcomeDirect,
	}

	if cred.ShouldUseADDetails {
		// Certificate id was derived upstream; skip all decoding.
		resolved.Outcome = OutcomeActiveDirectory
		return resolved
	}

	if cred.SignerToken != "" && (cred.Password == "" || cred.CertificateID == "") {
		decodeToken(&resolved, cred.SignerToken, details.TokenSeparator, decrypt)
	}

	applyPinOverrides(&resolved, details, decrypt)

	return resolved
}

func decodeToken(resolved *Resolved, token, separator string, decrypt secrets.DecryptFunc) {
	plain, err := decrypt(token)
	if err != nil {
		resolved.Outcome = OutcomePassthrough
		resolved.Reason = fmt.Errorf("credential: decrypt token: %w", err)
		return
	}

	if separator == "" || !strings.Contains(plain, separator) {
		resolved.Outcome = OutcomePassthrough
		resolved.Reason = ErrNoSeparator
		return
	}

	var parts []string
	for _, p := range strings.Split(plain, separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 2:
		resolved.CertificateID = parts[0]
		resolved.BearerToken = parts[1]
		resolved.Outcome = OutcomeComposite
	case 1:
		resolved.CertificateID = parts[0]
		resolved.Outcome = OutcomeSinglePart
	default:
		resolved.Outcome = OutcomePassthrough
		resolved.Reason = ErrEmptyParts
	}
}

// applyPinOverrides applies the tenant PIN knobs. The overrides are
// mutually exclusive (config validation enforces it); the persistent PIN
// wins when both somehow appear.
func applyPinOverrides(resolved *Resolved, details config.CompanySigner1Details, decrypt secrets.DecryptFunc) {
	if details.EncryptedPersistentPIN != "" {
		pin, err := decrypt(details.EncryptedPersistentPIN)
		if err == nil && pin != "" {
			resolved.PIN = pin
			return
		}
	}

	if details.UseCertIDAsPIN {
		resolved.PIN = resolved.CertificateID
	}
}
