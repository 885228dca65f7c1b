// Package signer1 implements the wire clients for the remote signing
// authority ("Signer1") and the external graphic-signing microservice.
//
// Two interchangeable transports exist, REST/JSON and SOAP, selected once
// per tenant at construction time. Both expose the same contract: sign a
// whole PDF, sign a named PDF field, sign XML/Word/Excel payloads, and
// verify a credential. Authority-reported failures come back as result
// codes, never as Go errors; errors are reserved for transport faults.
package signer1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/config"
	"github.com/GalSened/wesign-signing/secrets"
)

// Operation paths shared by both transports and the graphic service.
const (
	opSignPDF      = "SignPDF_PIN"
	opSignPDFField = "SignPDF_PIN_FIELD"
	opSignXML      = "SignXml_PIN"
	opSignWord     = "SignWord_PIN"
	opSignExcel    = "SignExcel_PIN"
	opVerify       = "Cred_Verify"
)

// Placement positions a whole-document signature appearance.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Page   int
}

// Request carries one signing (or verification) call to the authority.
type Request struct {
	CertificateID string
	PIN           string
	BearerToken   string
	Document      []byte
	FieldName     string
	Image         []byte
	Placement     *Placement
}

// Result is the authority's answer.
type Result struct {
	Code        ResCode
	SignedBytes []byte
}

// Transport is the strategy-facing remote signing contract.
type Transport interface {
	SignPDF(ctx context.Context, req Request) (Result, error)
	SignPDFField(ctx context.Context, req Request) (Result, error)
	SignXML(ctx context.Context, req Request) (Result, error)
	SignWord(ctx context.Context, req Request) (Result, error)
	SignExcel(ctx context.Context, req Request) (Result, error)
	VerifyCredential(ctx context.Context, req Request) (Result, error)
}

// Options configures transport construction. The zero value is usable.
type Options struct {
	// HTTPClient carries the caller's timeout policy. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Decrypt decrypts the tenant basic-auth password and graphic PIN.
	Decrypt secrets.DecryptFunc

	Logger *zap.Logger

	// MaxRetries bounds retries of transient I/O failures. Authority-reported
	// failures (GENERAL_ERROR and friends) are never retried.
	MaxRetries uint64

	// RetryInterval is the initial backoff interval.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Decrypt == nil {
		o.Decrypt = func(s string) (string, error) { return s, nil }
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 2
	}
	if o.RetryInterval == 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	return o
}

// NewTransport builds the tenant's transport. The REST/SOAP choice is made
// here, once, so call sites stay transport-agnostic.
func NewTransport(details config.CompanySigner1Details, opts Options) (Transport, error) {
	switch details.Transport {
	case config.TransportSOAP:
		return newSOAPTransport(details, opts.withDefaults())
	case config.TransportREST, "":
		return newRESTTransport(details, opts.withDefaults())
	default:
		return nil, fmt.Errorf("signer1: unknown transport %q", details.Transport)
	}
}
