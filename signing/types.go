// Package signing is the document signing engine. It dispatches a signing
// request to the Graphic or Server strategy, drives per-field signature
// chaining, and guarantees that at most one signing operation runs per
// document at a time.
package signing

import (
	"context"
	"fmt"

	"github.com/GalSened/wesign-signing/config"
	"github.com/GalSened/wesign-signing/credential"
	"github.com/GalSened/wesign-signing/pdfsigner"
	"github.com/GalSened/wesign-signing/signer1"
)

// SignatureType selects the signing strategy for a request.
type SignatureType int

const (
	// SignatureTypeGraphic renders a visible signature locally, optionally
	// delegating to the external graphic microservice. It is the default
	// for unknown types.
	SignatureTypeGraphic SignatureType = iota
	// SignatureTypeServer delegates the signature entirely to the remote
	// signing authority.
	SignatureTypeServer
)

func (t SignatureType) String() string {
	switch t {
	case SignatureTypeServer:
		return "Server"
	case SignatureTypeGraphic:
		return "Graphic"
	default:
		return fmt.Sprintf("SignatureType(%d)", int(t))
	}
}

// SignatureField names a placeholder in the PDF form and carries the
// signature artifact to embed there. Fields are produced upstream and are
// read-only to the engine.
type SignatureField struct {
	// Name must match an existing PDF form field.
	Name string

	// Image is a base64 payload, optionally a data URI with a declared
	// mime prefix. Empty means an invisible signature for this field.
	Image string

	Mandatory bool
}

// SigningInfo is one immutable signing request. It lives for exactly one
// call and is never persisted.
type SigningInfo struct {
	// DocumentID identifies the document for mutual exclusion. Two
	// operations with the same id are serialized.
	DocumentID string

	// Document is the raw PDF byte stream.
	Document []byte

	// Fields are signed strictly in order, each over the previous
	// iteration's output.
	Fields []SignatureField

	Reason     string
	SignerName string

	SignatureType SignatureType

	// Company is the tenant signing-authority configuration, read fresh
	// for this call.
	Company config.CompanySigner1Details

	// Credential is the caller-supplied signer authentication bundle.
	Credential credential.Signer1Credential
}

// LocalSigner is the in-process signing primitive. *pdfsigner.Service
// implements it.
type LocalSigner interface {
	SignDocument(ctx context.Context, req pdfsigner.Request) ([]byte, error)
}

// GraphicSigner is the external graphic microservice client.
// *signer1.GraphicClient implements it.
type GraphicSigner interface {
	SignField(ctx context.Context, details config.GraphicServiceDetails, pin string, document []byte, fieldName string, image []byte) (signer1.Result, error)
	SignDocument(ctx context.Context, details config.GraphicServiceDetails, pin string, document []byte) (signer1.Result, error)
}

// TransportFactory builds the tenant's remote transport. Called once per
// sign operation so configuration changes take effect immediately.
type TransportFactory func(details config.CompanySigner1Details) (signer1.Transport, error)
