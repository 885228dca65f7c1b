package signing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/images"
	"github.com/GalSened/wesign-signing/pdfsigner"
	"github.com/GalSened/wesign-signing/signer1"
)

// GraphicStrategy signs with a locally rendered appearance. When the
// tenant has the external graphic microservice configured it is preferred,
// with the local primitive as fallback; otherwise every field is signed
// locally. Fields are signed one at a time, each over the output of the
// previous field.
type GraphicStrategy struct {
	deps Dependencies
	log  *zap.Logger
}

// NewGraphicStrategy builds the strategy.
func NewGraphicStrategy(deps Dependencies) *GraphicStrategy {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &GraphicStrategy{deps: deps, log: log.Named("graphic")}
}

// Sign implements Strategy.
func (g *GraphicStrategy) Sign(ctx context.Context, info SigningInfo) ([]byte, error) {
	if len(info.Fields) == 0 {
		// Whole-document invisible signature with a name-only appearance.
		signed, err := g.deps.Local.SignDocument(ctx, pdfsigner.Request{
			Input:      info.Document,
			SignerName: info.SignerName,
			Reason:     info.Reason,
		})
		if err != nil {
			return nil, fmt.Errorf("signing: local whole-document sign: %w", err)
		}
		return signed, nil
	}

	pin, useExternal := g.externalPIN(info)

	document := info.Document
	for _, field := range info.Fields {
		image, err := decodeFieldImage(field)
		if err != nil {
			return nil, err
		}

		if useExternal {
			result, err := g.deps.Graphic.SignField(ctx, info.Company.Graphic, pin, document, field.Name, image)
			if err == nil {
				document = result.SignedBytes
				continue
			}

			if errors.Is(err, signer1.ErrGraphicServiceFailed) {
				// The service rejected this field; sign it locally and
				// keep trying the service for the rest.
				g.log.Warn("graphic service rejected field, falling back to local signing",
					zap.String("field", field.Name), zap.Error(err))
			} else {
				// Unexpected transport fault: stop sending fields out and
				// finish the batch locally.
				g.log.Error("graphic service unreachable, signing remaining fields locally",
					zap.String("field", field.Name), zap.Error(err))
				useExternal = false
			}
		}

		document, err = g.signFieldLocally(ctx, document, field, image, info)
		if err != nil {
			return nil, err
		}
	}

	return document, nil
}

func (g *GraphicStrategy) signFieldLocally(ctx context.Context, document []byte, field SignatureField, image []byte, info SigningInfo) ([]byte, error) {
	signed, err := g.deps.Local.SignDocument(ctx, pdfsigner.Request{
		Input:      document,
		FieldName:  field.Name,
		Visible:    len(image) > 0,
		Image:      image,
		SignerName: info.SignerName,
		Reason:     info.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("signing: local sign of field %q: %w", field.Name, err)
	}
	return signed, nil
}

// externalPIN reports whether the external graphic service is usable for
// this tenant and returns its decrypted PIN. The service needs a
// certificate reference and a decryptable PIN on top of the enable flag.
func (g *GraphicStrategy) externalPIN(info SigningInfo) (string, bool) {
	graphic := info.Company.Graphic
	if !graphic.Enabled || g.deps.Graphic == nil || graphic.CertificateID == "" {
		return "", false
	}

	pin, err := g.deps.Decrypt(graphic.EncryptedPIN)
	if err != nil || pin == "" {
		if err != nil {
			g.log.Warn("graphic service pin undecryptable, using local signing", zap.Error(err))
		}
		return "", false
	}

	return pin, true
}

// decodeFieldImage decodes a field's image payload and normalizes BMP to
// PNG for the primitive and the wire.
func decodeFieldImage(field SignatureField) ([]byte, error) {
	data, mime, err := images.Decode(field.Image)
	if err != nil {
		return nil, fmt.Errorf("signing: field %q image: %w", field.Name, err)
	}
	if data == nil {
		return nil, nil
	}

	data, err = images.EnsurePNG(data, mime)
	if err != nil {
		return nil, fmt.Errorf("signing: field %q image: %w", field.Name, err)
	}
	return data, nil
}
