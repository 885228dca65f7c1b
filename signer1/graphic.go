package signer1

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/config"
)

// ErrGraphicServiceFailed reports that the graphic microservice rejected a
// call (HTTP 400/500) or returned a non-success result code. The graphic
// strategy maps it to a local-signing fallback for the affected field.
var ErrGraphicServiceFailed = errors.New("signer1: graphic service failed")

// GraphicClient calls the external graphic-signing microservice. It shares
// the authority's JSON wire shape but holds its own endpoint and
// certificate, both tenant-configured.
type GraphicClient struct {
	opts Options
	log  *zap.Logger
}

// NewGraphicClient returns a client using the given options.
func NewGraphicClient(opts Options) *GraphicClient {
	o := opts.withDefaults()
	return &GraphicClient{opts: o, log: o.Logger.Named("signer1.graphic")}
}

// SignField signs one named field through the microservice.
func (c *GraphicClient) SignField(ctx context.Context, details config.GraphicServiceDetails, pin string, document []byte, fieldName string, image []byte) (Result, error) {
	return c.call(ctx, details, opSignPDFField, pin, document, fieldName, image)
}

// SignDocument signs a whole document through the microservice.
func (c *GraphicClient) SignDocument(ctx context.Context, details config.GraphicServiceDetails, pin string, document []byte) (Result, error) {
	return c.call(ctx, details, opSignPDF, pin, document, "", nil)
}

func (c *GraphicClient) call(ctx context.Context, details config.GraphicServiceDetails, op, pin string, document []byte, fieldName string, image []byte) (Result, error) {
	body := wireRequest{
		CertID:    details.CertificateID,
		Pincode:   pin,
		FieldName: fieldName,
		InputFile: base64.StdEncoding.EncodeToString(document),
	}
	if len(image) > 0 {
		body.Image = base64.StdEncoding.EncodeToString(image)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: marshal graphic %s: %w", op, err)
	}

	url := strings.TrimRight(details.Endpoint, "/") + "/" + op
	resp, err := postWithRetry(ctx, c.opts, url, payload, func(httpReq *http.Request) error {
		httpReq.Header.Set("Content-Type", "application/json")
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: read graphic %s response: %w", op, err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusInternalServerError {
		c.log.Warn("graphic service rejected call",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)))
		return Result{}, fmt.Errorf("%w: status %d", ErrGraphicServiceFailed, resp.StatusCode)
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return Result{}, fmt.Errorf("signer1: parse graphic %s response: %w", op, err)
	}

	if wire.Result != Success {
		return Result{}, fmt.Errorf("%w: result %s", ErrGraphicServiceFailed, wire.Result)
	}

	signed, err := base64.StdEncoding.DecodeString(wire.SignedBytes)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: decode graphic signed bytes: %w", err)
	}

	return Result{Code: wire.Result, SignedBytes: signed}, nil
}
