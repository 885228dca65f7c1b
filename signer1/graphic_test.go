package signer1

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GalSened/wesign-signing/config"
)

func graphicDetails(endpoint string) config.GraphicServiceDetails {
	return config.GraphicServiceDetails{
		Enabled:       true,
		Endpoint:      endpoint,
		CertificateID: "graphic-cert",
	}
}

func TestGraphicSignFieldSuccess(t *testing.T) {
	signed := []byte("graphic-signed")

	var gotPath string
	var gotBody wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(wireResponse{
			Result:      Success,
			SignedBytes: base64.StdEncoding.EncodeToString(signed),
		})
	}))
	defer srv.Close()

	client := NewGraphicClient(testOptions(srv.Client()))
	result, err := client.SignField(context.Background(), graphicDetails(srv.URL), "pin", []byte("doc"), "Sig1", []byte{9})
	require.NoError(t, err)

	assert.Equal(t, "/SignPDF_PIN_FIELD", gotPath)
	assert.Equal(t, "graphic-cert", gotBody.CertID)
	assert.Equal(t, "pin", gotBody.Pincode)
	assert.Equal(t, "Sig1", gotBody.FieldName)
	assert.Equal(t, signed, result.SignedBytes)
}

func TestGraphicServiceRejectionIsSentinel(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no", status)
		}))

		client := NewGraphicClient(testOptions(srv.Client()))
		_, err := client.SignField(context.Background(), graphicDetails(srv.URL), "pin", []byte("doc"), "Sig1", nil)
		assert.ErrorIs(t, err, ErrGraphicServiceFailed, "status %d", status)

		srv.Close()
	}
}

func TestGraphicNonSuccessResultIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{Result: GeneralError})
	}))
	defer srv.Close()

	client := NewGraphicClient(testOptions(srv.Client()))
	_, err := client.SignDocument(context.Background(), graphicDetails(srv.URL), "pin", []byte("doc"))
	assert.ErrorIs(t, err, ErrGraphicServiceFailed)
}

func TestGraphicNetworkFailureIsNotSentinel(t *testing.T) {
	rt := &flakyRoundTripper{failures: 100, inner: http.DefaultTransport}
	client := NewGraphicClient(testOptions(&http.Client{Transport: rt}))

	_, err := client.SignField(context.Background(), graphicDetails("http://graphic.invalid"), "pin", []byte("doc"), "Sig1", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGraphicServiceFailed)
}
