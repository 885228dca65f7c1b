package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategy(t *testing.T) {
	deps := testDeps(&fakeLocal{}, nil, nil)

	testCases := []struct {
		name string
		typ  SignatureType
		want interface{}
	}{
		{"graphic", SignatureTypeGraphic, &GraphicStrategy{}},
		{"server", SignatureTypeServer, &ServerStrategy{}},
		{"unknown defaults to graphic", SignatureType(99), &GraphicStrategy{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.IsType(t, tc.want, SelectStrategy(tc.typ, deps))
		})
	}
}

func TestSignatureTypeString(t *testing.T) {
	assert.Equal(t, "Graphic", SignatureTypeGraphic.String())
	assert.Equal(t, "Server", SignatureTypeServer.String())
	assert.Equal(t, "SignatureType(7)", SignatureType(7).String())
}
