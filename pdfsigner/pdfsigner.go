// Package pdfsigner is the local signing primitive: it produces digitally
// signed PDF byte streams with the certificate held by the service,
// typically backed by an HSM through the crypto.Signer interface.
//
// It is the target of the graphic strategy's fallback path and the only
// signer used when no external graphic service is configured. Visible
// signatures are placed on an existing named AcroForm field; invisible
// signatures create a new default-named field.
package pdfsigner

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfsign/sign"
	"github.com/mattetti/filebuffer"
	"go.uber.org/zap"
)

// Status classifies primitive failures. A non-OK status is fatal to the
// sign operation that triggered it.
type Status string

const (
	StatusOK            Status = "OK"
	StatusReadError     Status = "READ_ERROR"
	StatusFieldNotFound Status = "FIELD_NOT_FOUND"
	StatusSignError     Status = "SIGN_ERROR"
)

// Error carries the primitive's status code alongside the cause.
type Error struct {
	Status Status
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdfsigner: %s: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Request describes one local signing pass over a document.
type Request struct {
	// Input is the full PDF byte stream to sign.
	Input []byte

	// FieldName targets an existing AcroForm field. Required for visible
	// signatures; ignored for invisible ones.
	FieldName string

	// Visible selects an image appearance placed on the named field.
	Visible bool

	// Image is PNG or JPEG data for the visible appearance.
	Image []byte

	SignerName string
	Reason     string
	Location   string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithTSA enables RFC 3161 timestamping of produced signatures.
func WithTSA(url string) Option {
	return func(s *Service) { s.tsaURL = url }
}

// WithCertificateChains embeds the given chains in produced signatures.
func WithCertificateChains(chains [][]*x509.Certificate) Option {
	return func(s *Service) { s.chains = chains }
}

// WithPKCS1v15 disables RSA-PSS padding for authorities that only accept
// PKCS#1 v1.5 signatures.
func WithPKCS1v15() Option {
	return func(s *Service) { s.usePSS = false }
}

// Service signs PDFs with a locally held certificate and key.
type Service struct {
	cert   *x509.Certificate
	signer crypto.Signer
	chains [][]*x509.Certificate
	tsaURL string
	usePSS bool
	log    *zap.Logger
}

// New returns a Service signing with the given certificate and key.
func New(cert *x509.Certificate, signer crypto.Signer, opts ...Option) *Service {
	s := &Service{
		cert:   cert,
		signer: signer,
		usePSS: true,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignDocument signs the request's document and returns the signed byte
// stream. The input is never modified; each call produces a fresh output
// buffer so callers can chain signatures field by field.
func (s *Service) SignDocument(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := bytes.NewReader(req.Input)
	size := int64(len(req.Input))

	rdr, err := pdf.NewReader(input, size)
	if err != nil {
		return nil, &Error{Status: StatusReadError, Err: err}
	}

	appearance := sign.Appearance{}
	if req.Visible {
		page, rect, err := fieldPlacement(rdr, req.FieldName)
		if err != nil {
			return nil, err
		}
		appearance = sign.Appearance{
			Visible:     true,
			Page:        page,
			LowerLeftX:  rect[0],
			LowerLeftY:  rect[1],
			UpperRightX: rect[2],
			UpperRightY: rect[3],
			Image:       req.Image,
		}
	}

	signData := sign.SignData{
		Signature: sign.SignDataSignature{
			Info: sign.SignDataSignatureInfo{
				Name:     req.SignerName,
				Reason:   req.Reason,
				Location: req.Location,
				Date:     time.Now(),
			},
			CertType:   sign.ApprovalSignature,
			DocMDPPerm: sign.AllowFillingExistingFormFieldsAndSignaturesPerms,
		},
		Signer:            s.signingKey(),
		DigestAlgorithm:   crypto.SHA256,
		Certificate:       s.cert,
		CertificateChains: s.chains,
		Appearance:        appearance,
	}
	if s.tsaURL != "" {
		signData.TSA = sign.TSA{URL: s.tsaURL}
	}

	output := filebuffer.New([]byte{})
	if err := sign.Sign(input, output, rdr, size, signData); err != nil {
		return nil, &Error{Status: StatusSignError, Err: err}
	}

	signed := output.Buff.Bytes()
	s.log.Debug("document signed locally",
		zap.String("field", req.FieldName),
		zap.Bool("visible", req.Visible),
		zap.Int("input_bytes", len(req.Input)),
		zap.Int("output_bytes", len(signed)))

	return signed, nil
}
