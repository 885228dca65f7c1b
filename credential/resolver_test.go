package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GalSened/wesign-signing/config"
)

// identityDecrypt treats tokens as already-plaintext.
func identityDecrypt(s string) (string, error) { return s, nil }

func failingDecrypt(string) (string, error) {
	return "", errors.New("bad ciphertext")
}

func tenant(separator string) config.CompanySigner1Details {
	return config.CompanySigner1Details{
		Endpoint:       "https://signer1.example.com",
		TokenSeparator: separator,
	}
}

func TestResolveActiveDirectorySkipsDecoding(t *testing.T) {
	cred := Signer1Credential{
		CertificateID:      "ad-cert",
		Password:           "pw",
		SignerToken:        "id|token",
		ShouldUseADDetails: true,
	}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomeActiveDirectory, got.Outcome)
	assert.Equal(t, "ad-cert", got.CertificateID)
	assert.Equal(t, "pw", got.PIN)
	assert.Empty(t, got.BearerToken)
}

func TestResolveCompositeToken(t *testing.T) {
	cred := Signer1Credential{SignerToken: "cert-42|saml-bearer"}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomeComposite, got.Outcome)
	assert.Equal(t, "cert-42", got.CertificateID)
	assert.Equal(t, "saml-bearer", got.BearerToken)
	assert.NoError(t, got.Reason)
}

func TestResolveSinglePartToken(t *testing.T) {
	// Trailing separator: the AD-name-as-token encoding.
	cred := Signer1Credential{SignerToken: "DOMAIN-user|"}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomeSinglePart, got.Outcome)
	assert.Equal(t, "DOMAIN-user", got.CertificateID)
	assert.Empty(t, got.BearerToken)
}

func TestResolvePlainCredentialIsNoOp(t *testing.T) {
	cred := Signer1Credential{CertificateID: "cert-9", Password: "1234"}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomeDirect, got.Outcome)
	assert.Equal(t, "cert-9", got.CertificateID)
	assert.Equal(t, "1234", got.PIN)
	assert.Empty(t, got.BearerToken)
}

func TestResolveIdempotent(t *testing.T) {
	cred := Signer1Credential{CertificateID: "cert-9", Password: "1234"}

	first := Resolve(cred, tenant("|"), identityDecrypt)
	second := Resolve(Signer1Credential{
		CertificateID: first.CertificateID,
		Password:      first.PIN,
	}, tenant("|"), identityDecrypt)

	assert.Equal(t, first.CertificateID, second.CertificateID)
	assert.Equal(t, first.PIN, second.PIN)
	assert.Equal(t, first.BearerToken, second.BearerToken)
}

func TestResolveTokenIgnoredWhenIDAndPasswordPresent(t *testing.T) {
	cred := Signer1Credential{
		CertificateID: "cert-9",
		Password:      "1234",
		SignerToken:   "other|token",
	}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomeDirect, got.Outcome)
	assert.Equal(t, "cert-9", got.CertificateID)
}

func TestResolveUndecodableTokenPassesThrough(t *testing.T) {
	cred := Signer1Credential{CertificateID: "cert-9", SignerToken: "garbage"}

	got := Resolve(cred, tenant("|"), failingDecrypt)

	assert.Equal(t, OutcomePassthrough, got.Outcome)
	assert.Error(t, got.Reason)
	assert.Equal(t, "cert-9", got.CertificateID)
}

func TestResolveNoSeparatorPassesThrough(t *testing.T) {
	cred := Signer1Credential{SignerToken: "no-separator-here"}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomePassthrough, got.Outcome)
	assert.ErrorIs(t, got.Reason, ErrNoSeparator)
	assert.Empty(t, got.CertificateID)
}

func TestResolveAllEmptyPartsPassesThrough(t *testing.T) {
	cred := Signer1Credential{SignerToken: "||"}

	got := Resolve(cred, tenant("|"), identityDecrypt)

	assert.Equal(t, OutcomePassthrough, got.Outcome)
	assert.ErrorIs(t, got.Reason, ErrEmptyParts)
}

func TestPersistentPinOverride(t *testing.T) {
	details := tenant("|")
	details.EncryptedPersistentPIN = "shared-pin"

	got := Resolve(Signer1Credential{CertificateID: "cert-9", Password: "own"}, details, identityDecrypt)

	assert.Equal(t, "shared-pin", got.PIN)
}

func TestPersistentPinOverrideUndecryptableFallsThrough(t *testing.T) {
	details := tenant("|")
	details.EncryptedPersistentPIN = "broken"
	details.UseCertIDAsPIN = true

	got := Resolve(Signer1Credential{CertificateID: "cert-9", Password: "own"}, details, failingDecrypt)

	// Persistent pin could not be decrypted, so the cert-id override applies.
	assert.Equal(t, "cert-9", got.PIN)
}

func TestCertIDAsPinOverride(t *testing.T) {
	details := tenant("|")
	details.UseCertIDAsPIN = true

	got := Resolve(Signer1Credential{SignerToken: "cert-42|bearer"}, details, identityDecrypt)

	// Override applies to the resolved certificate id, not the raw input.
	assert.Equal(t, "cert-42", got.PIN)
	assert.Equal(t, "cert-42", got.CertificateID)
}
