package signing

import (
	"context"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/secrets"
)

// Strategy signs one request end to end.
type Strategy interface {
	Sign(ctx context.Context, info SigningInfo) ([]byte, error)
}

// Dependencies are the collaborators a strategy needs. The caller wires
// them once; construction of strategies is cheap and per-call.
type Dependencies struct {
	Local        LocalSigner
	Graphic      GraphicSigner
	NewTransport TransportFactory
	Decrypt      secrets.DecryptFunc
	Logger       *zap.Logger
}

// SelectStrategy maps a signature type to its strategy. Pure: Server maps
// to the server strategy, everything else (including unknown values) to
// the graphic strategy.
func SelectStrategy(t SignatureType, deps Dependencies) Strategy {
	if t == SignatureTypeServer {
		return NewServerStrategy(deps)
	}
	return NewGraphicStrategy(deps)
}
