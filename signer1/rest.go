package signer1

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/config"
)

// restTransport talks JSON over HTTP to the authority.
type restTransport struct {
	details config.CompanySigner1Details
	base    string
	opts    Options
	log     *zap.Logger
}

func newRESTTransport(details config.CompanySigner1Details, opts Options) (*restTransport, error) {
	if details.Endpoint == "" {
		return nil, fmt.Errorf("signer1: tenant endpoint is empty")
	}
	return &restTransport{
		details: details,
		base:    strings.TrimRight(details.Endpoint, "/"),
		opts:    opts,
		log:     opts.Logger.Named("signer1.rest"),
	}, nil
}

// wireRequest is the JSON request body shared by all operations.
type wireRequest struct {
	CertID    string  `json:"CertID"`
	Pincode   string  `json:"Pincode"`
	Token     string  `json:"Token"`
	InputFile string  `json:"InputFile,omitempty"`
	FieldName string  `json:"FieldName,omitempty"`
	Image     string  `json:"Image,omitempty"`
	X         float64 `json:"X,omitempty"`
	Y         float64 `json:"Y,omitempty"`
	Width     float64 `json:"Width,omitempty"`
	Height    float64 `json:"Height,omitempty"`
	Page      int     `json:"Page,omitempty"`
}

// wireResponse is the JSON envelope returned by the authority.
type wireResponse struct {
	Result      ResCode `json:"Result"`
	SignedBytes string  `json:"SignedBytes"`
}

func (t *restTransport) SignPDF(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignPDF, req)
}

func (t *restTransport) SignPDFField(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignPDFField, req)
}

func (t *restTransport) SignXML(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignXML, req)
}

func (t *restTransport) SignWord(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignWord, req)
}

func (t *restTransport) SignExcel(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignExcel, req)
}

func (t *restTransport) VerifyCredential(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opVerify, req)
}

func (t *restTransport) call(ctx context.Context, op string, req Request) (Result, error) {
	token, err := mintToken(t.details, req.CertificateID, req.BearerToken)
	if err != nil {
		return Result{}, err
	}

	body := wireRequest{
		CertID:    req.CertificateID,
		Pincode:   req.PIN,
		Token:     token,
		FieldName: req.FieldName,
	}
	if len(req.Document) > 0 {
		body.InputFile = base64.StdEncoding.EncodeToString(req.Document)
	}
	if len(req.Image) > 0 {
		body.Image = base64.StdEncoding.EncodeToString(req.Image)
	}
	if req.Placement != nil {
		body.X = req.Placement.X
		body.Y = req.Placement.Y
		body.Width = req.Placement.Width
		body.Height = req.Placement.Height
		body.Page = req.Placement.Page
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: marshal %s: %w", op, err)
	}

	resp, err := t.post(ctx, t.base+"/"+op, payload)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: read %s response: %w", op, err)
	}

	if authorityFailureStatus(op, resp.StatusCode) {
		// The authority rejected the request. This is a reported failure,
		// not a transport fault: degrade to GENERAL_ERROR.
		t.log.Warn("authority reported failure",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)))
		return Result{Code: GeneralError}, nil
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return Result{}, fmt.Errorf("signer1: parse %s response: %w", op, err)
	}

	result := Result{Code: wire.Result}
	if wire.SignedBytes != "" {
		result.SignedBytes, err = base64.StdEncoding.DecodeString(wire.SignedBytes)
		if err != nil {
			return Result{}, fmt.Errorf("signer1: decode %s signed bytes: %w", op, err)
		}
	}

	return result, nil
}

func (t *restTransport) post(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	return postWithRetry(ctx, t.opts, url, payload, func(httpReq *http.Request) error {
		httpReq.Header.Set("Content-Type", "application/json")

		if t.details.User != "" {
			password, err := t.opts.Decrypt(t.details.EncryptedPassword)
			if err != nil {
				return fmt.Errorf("signer1: decrypt basic-auth password: %w", err)
			}
			httpReq.SetBasicAuth(t.details.User, password)
		}
		return nil
	})
}

// postWithRetry sends a POST, retrying transient I/O failures with
// exponential backoff. HTTP responses of any status are returned without
// retry; only failures to obtain a response at all are transient.
func postWithRetry(ctx context.Context, opts Options, url string, payload []byte, prepare func(*http.Request) error) (*http.Response, error) {
	var resp *http.Response

	attempt := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := prepare(httpReq); err != nil {
			return backoff.Permanent(err)
		}

		resp, err = opts.HTTPClient.Do(httpReq)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.RetryInterval

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(policy, opts.MaxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("signer1: post %s: %w", url, err)
	}

	return resp, nil
}

// authorityFailureStatus reports whether a status code means the authority
// rejected the call. Credential verification additionally treats 503 as a
// rejection because the authority signals locked credentials with it.
func authorityFailureStatus(op string, status int) bool {
	if status == http.StatusBadRequest || status == http.StatusInternalServerError {
		return true
	}
	return op == opVerify && status == http.StatusServiceUnavailable
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
