package signing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GalSened/wesign-signing/config"
	"github.com/GalSened/wesign-signing/pdfsigner"
	"github.com/GalSened/wesign-signing/signer1"
)

// fakeLocal records every request and appends a marker so chaining is
// observable in the output bytes.
type fakeLocal struct {
	mu       sync.Mutex
	requests []pdfsigner.Request
	err      error
}

func (f *fakeLocal) SignDocument(_ context.Context, req pdfsigner.Request) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return append(append([]byte{}, req.Input...), []byte("|local:"+req.FieldName)...), nil
}

func (f *fakeLocal) calls() []pdfsigner.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pdfsigner.Request{}, f.requests...)
}

// localFunc adapts a function to LocalSigner.
type localFunc func(ctx context.Context, req pdfsigner.Request) ([]byte, error)

func (f localFunc) SignDocument(ctx context.Context, req pdfsigner.Request) ([]byte, error) {
	return f(ctx, req)
}

// fakeGraphic answers per field name; unlisted fields succeed.
type fakeGraphic struct {
	errs   map[string]error
	fields []string
}

func (f *fakeGraphic) SignField(_ context.Context, _ config.GraphicServiceDetails, _ string, document []byte, fieldName string, _ []byte) (signer1.Result, error) {
	f.fields = append(f.fields, fieldName)
	if err := f.errs[fieldName]; err != nil {
		return signer1.Result{}, err
	}
	return signer1.Result{
		Code:        signer1.Success,
		SignedBytes: append(append([]byte{}, document...), []byte("|remote:"+fieldName)...),
	}, nil
}

func (f *fakeGraphic) SignDocument(_ context.Context, _ config.GraphicServiceDetails, _ string, document []byte) (signer1.Result, error) {
	return signer1.Result{Code: signer1.Success, SignedBytes: document}, nil
}

// fakeTransport scripts the verify answer and one result code per sign
// call, recording every call in order.
type fakeTransport struct {
	verifyCode signer1.ResCode
	verifyErr  error
	signCodes  []signer1.ResCode
	signErr    error

	calls    []string
	requests []signer1.Request
}

func (f *fakeTransport) sign(op string, req signer1.Request) (signer1.Result, error) {
	f.calls = append(f.calls, op)
	f.requests = append(f.requests, req)
	if f.signErr != nil {
		return signer1.Result{}, f.signErr
	}
	code := signer1.Success
	if n := len(f.calls) - 2; n >= 0 && n < len(f.signCodes) { // first call is verify
		code = f.signCodes[n]
	}
	if code != signer1.Success {
		return signer1.Result{Code: code}, nil
	}
	return signer1.Result{
		Code:        signer1.Success,
		SignedBytes: append(append([]byte{}, req.Document...), []byte("|server:"+req.FieldName)...),
	}, nil
}

func (f *fakeTransport) SignPDF(_ context.Context, req signer1.Request) (signer1.Result, error) {
	return f.sign("SignPDF", req)
}

func (f *fakeTransport) SignPDFField(_ context.Context, req signer1.Request) (signer1.Result, error) {
	return f.sign("SignPDFField", req)
}

func (f *fakeTransport) SignXML(_ context.Context, req signer1.Request) (signer1.Result, error) {
	return f.sign("SignXML", req)
}

func (f *fakeTransport) SignWord(_ context.Context, req signer1.Request) (signer1.Result, error) {
	return f.sign("SignWord", req)
}

func (f *fakeTransport) SignExcel(_ context.Context, req signer1.Request) (signer1.Result, error) {
	return f.sign("SignExcel", req)
}

func (f *fakeTransport) VerifyCredential(_ context.Context, req signer1.Request) (signer1.Result, error) {
	f.calls = append(f.calls, "VerifyCredential")
	f.requests = append(f.requests, req)
	if f.verifyErr != nil {
		return signer1.Result{}, f.verifyErr
	}
	return signer1.Result{Code: f.verifyCode}, nil
}

func identityDecrypt(s string) (string, error) { return s, nil }

func testDeps(local *fakeLocal, graphic *fakeGraphic, transport *fakeTransport) Dependencies {
	deps := Dependencies{
		Local:   local,
		Decrypt: identityDecrypt,
	}
	if graphic != nil {
		deps.Graphic = graphic
	}
	if transport != nil {
		deps.NewTransport = func(config.CompanySigner1Details) (signer1.Transport, error) {
			return transport, nil
		}
	}
	return deps
}

func graphicEnabledCompany() config.CompanySigner1Details {
	return config.CompanySigner1Details{
		Graphic: config.GraphicServiceDetails{
			Enabled:       true,
			Endpoint:      "http://graphic.internal",
			CertificateID: "gfx-cert",
			EncryptedPIN:  "1234",
		},
	}
}

func fields(names ...string) []SignatureField {
	out := make([]SignatureField, 0, len(names))
	for _, n := range names {
		out = append(out, SignatureField{Name: n})
	}
	return out
}

func transportErr() error { return fmt.Errorf("dial tcp: connection refused") }

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}
