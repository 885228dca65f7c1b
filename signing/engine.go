package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/config"
	"github.com/GalSened/wesign-signing/signer1"
)

// Engine is the entry point for signing operations. It owns the
// per-document lock and hands each request to the strategy selected by its
// signature type.
type Engine struct {
	deps  Dependencies
	locks *docLocks
	log   *zap.Logger
}

// NewEngine wires an Engine. Local signing is mandatory; the transport
// factory defaults to signer1.NewTransport with the engine's decrypt and
// logger.
func NewEngine(deps Dependencies) (*Engine, error) {
	if deps.Local == nil {
		return nil, errors.New("signing: local signer is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Decrypt == nil {
		return nil, errors.New("signing: decrypt function is required")
	}
	if deps.NewTransport == nil {
		opts := signer1.Options{Logger: deps.Logger, Decrypt: deps.Decrypt}
		deps.NewTransport = func(details config.CompanySigner1Details) (signer1.Transport, error) {
			return signer1.NewTransport(details, opts)
		}
	}

	return &Engine{
		deps:  deps,
		locks: newDocLocks(),
		log:   deps.Logger.Named("signing"),
	}, nil
}

// Sign executes one signing operation. The result is all-or-nothing: on
// any error no partial output is returned. Operations on the same
// DocumentID are serialized.
func (e *Engine) Sign(ctx context.Context, info SigningInfo) ([]byte, error) {
	if len(info.Document) == 0 {
		return nil, fmt.Errorf("signing: empty document")
	}

	log := e.log.With(
		zap.String("operation_id", uuid.NewString()),
		zap.String("document_id", info.DocumentID),
		zap.Stringer("signature_type", info.SignatureType),
		zap.Int("fields", len(info.Fields)))

	if info.DocumentID != "" {
		unlock := e.locks.lock(info.DocumentID)
		defer unlock()
	}

	log.Info("signing operation started")

	signed, err := SelectStrategy(info.SignatureType, e.depsWith(log)).Sign(ctx, info)
	if err != nil {
		log.Error("signing operation failed", zap.Error(err))
		return nil, err
	}

	log.Info("signing operation completed", zap.Int("signed_bytes", len(signed)))
	return signed, nil
}

// VerifyCredential checks the request credential against the authority
// without sending any document bytes. Only meaningful for Server signing.
func (e *Engine) VerifyCredential(ctx context.Context, info SigningInfo) error {
	return NewServerStrategy(e.deps).VerifyCredential(ctx, info)
}

func (e *Engine) depsWith(log *zap.Logger) Dependencies {
	deps := e.deps
	deps.Logger = log
	return deps
}
