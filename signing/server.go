package signing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/credential"
	"github.com/GalSened/wesign-signing/signer1"
)

// ServerStrategy delegates signing entirely to the remote authority. The
// credential is resolved and verified before any document bytes leave the
// process; any non-success result code aborts the operation.
type ServerStrategy struct {
	deps Dependencies
	log  *zap.Logger
}

// NewServerStrategy builds the strategy.
func NewServerStrategy(deps Dependencies) *ServerStrategy {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &ServerStrategy{deps: deps, log: log.Named("server")}
}

// VerifyCredential resolves the request credential and checks it against
// the authority. A non-success result is a fatal CredentialError.
func (s *ServerStrategy) VerifyCredential(ctx context.Context, info SigningInfo) error {
	transport, err := s.deps.NewTransport(info.Company)
	if err != nil {
		return fmt.Errorf("signing: build transport: %w", err)
	}

	return s.verify(ctx, transport, s.resolve(info))
}

// Sign implements Strategy. Credential verification is a precondition: no
// document bytes are sent before it passes.
func (s *ServerStrategy) Sign(ctx context.Context, info SigningInfo) ([]byte, error) {
	transport, err := s.deps.NewTransport(info.Company)
	if err != nil {
		return nil, fmt.Errorf("signing: build transport: %w", err)
	}

	resolved := s.resolve(info)
	if err := s.verify(ctx, transport, resolved); err != nil {
		return nil, err
	}

	if len(info.Fields) == 0 {
		result, err := transport.SignPDF(ctx, signer1.Request{
			CertificateID: resolved.CertificateID,
			PIN:           resolved.PIN,
			BearerToken:   resolved.BearerToken,
			Document:      info.Document,
		})
		if err != nil {
			return nil, fmt.Errorf("signing: remote whole-document sign: %w", err)
		}
		if result.Code != signer1.Success {
			return nil, &SignError{Code: result.Code}
		}
		return result.SignedBytes, nil
	}

	document := info.Document
	for _, field := range info.Fields {
		image, err := decodeFieldImage(field)
		if err != nil {
			return nil, err
		}

		result, err := transport.SignPDFField(ctx, signer1.Request{
			CertificateID: resolved.CertificateID,
			PIN:           resolved.PIN,
			BearerToken:   resolved.BearerToken,
			Document:      document,
			FieldName:     field.Name,
			Image:         image,
		})
		if err != nil {
			return nil, fmt.Errorf("signing: remote sign of field %q: %w", field.Name, err)
		}
		if result.Code != signer1.Success {
			return nil, &SignError{Code: result.Code, Field: field.Name}
		}

		document = result.SignedBytes
	}

	return document, nil
}

func (s *ServerStrategy) resolve(info SigningInfo) credential.Resolved {
	resolved := credential.Resolve(info.Credential, info.Company, s.deps.Decrypt)

	if resolved.Outcome == credential.OutcomePassthrough {
		// Deliberately non-fatal: verification reports the bad credential.
		s.log.Warn("credential resolution degraded to passthrough", zap.Error(resolved.Reason))
	} else {
		s.log.Debug("credential resolved", zap.Stringer("outcome", resolved.Outcome))
	}

	return resolved
}

func (s *ServerStrategy) verify(ctx context.Context, transport signer1.Transport, resolved credential.Resolved) error {
	result, err := transport.VerifyCredential(ctx, signer1.Request{
		CertificateID: resolved.CertificateID,
		PIN:           resolved.PIN,
		BearerToken:   resolved.BearerToken,
	})
	if err != nil {
		return fmt.Errorf("signing: verify credential: %w", err)
	}
	if result.Code != signer1.Success {
		return &CredentialError{Code: result.Code}
	}
	return nil
}
