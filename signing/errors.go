package signing

import (
	"fmt"

	"github.com/GalSened/wesign-signing/signer1"
)

// CredentialError reports a credential the authority refused to verify.
// It is fatal and never retried.
type CredentialError struct {
	Code signer1.ResCode
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("signing: invalid credential: %s", e.Code)
}

// SignError reports a non-success result code from the remote authority
// during signing. The whole operation aborts; no partial output is
// returned.
type SignError struct {
	Code  signer1.ResCode
	Field string
}

func (e *SignError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("signing: sign operation failed with %s on field %q", e.Code, e.Field)
	}
	return fmt.Sprintf("signing: sign operation failed with %s", e.Code)
}
