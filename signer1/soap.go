package signer1

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/GalSened/wesign-signing/config"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	signer1NS      = "http://tempuri.org/"
)

// soapTransport talks the authority's legacy SOAP contract. The binding is
// chosen from the endpoint URL scheme: a scheme containing "s" selects the
// HTTPS binding, and a configured tenant user additionally selects the
// Basic-auth binding variant.
type soapTransport struct {
	details   config.CompanySigner1Details
	endpoint  string
	basicAuth bool
	opts      Options
	log       *zap.Logger
}

func newSOAPTransport(details config.CompanySigner1Details, opts Options) (*soapTransport, error) {
	u, err := url.Parse(details.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("signer1: parse soap endpoint: %w", err)
	}

	if strings.Contains(u.Scheme, "s") {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}

	return &soapTransport{
		details:   details,
		endpoint:  u.String(),
		basicAuth: details.User != "",
		opts:      opts,
		log:       opts.Logger.Named("signer1.soap"),
	}, nil
}

// soapOperation is the operation element inside the request body. All six
// operations share one shape; zero-valued optionals are omitted.
type soapOperation struct {
	XMLName   xml.Name
	Xmlns     string  `xml:"xmlns,attr"`
	CertID    string  `xml:"CertID"`
	Pincode   string  `xml:"Pincode"`
	Token     string  `xml:"Token"`
	InputFile string  `xml:"InputFile,omitempty"`
	FieldName string  `xml:"FieldName,omitempty"`
	Image     string  `xml:"Image,omitempty"`
	X         float64 `xml:"X,omitempty"`
	Y         float64 `xml:"Y,omitempty"`
	Width     float64 `xml:"Width,omitempty"`
	Height    float64 `xml:"Height,omitempty"`
	Page      int     `xml:"Page,omitempty"`
}

type soapRequestEnvelope struct {
	XMLName xml.Name        `xml:"soap:Envelope"`
	SoapNS  string          `xml:"xmlns:soap,attr"`
	Body    soapRequestBody `xml:"soap:Body"`
}

type soapRequestBody struct {
	Operation soapOperation
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type soapResult struct {
	Result      int    `xml:"Result"`
	SignedBytes string `xml:"SignedBytes"`
}

type soapResponseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault    *soapFault `xml:"Fault"`
		Response soapResult `xml:",any"`
	} `xml:"Body"`
}

func (t *soapTransport) SignPDF(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignPDF, req)
}

func (t *soapTransport) SignPDFField(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignPDFField, req)
}

func (t *soapTransport) SignXML(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignXML, req)
}

func (t *soapTransport) SignWord(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignWord, req)
}

func (t *soapTransport) SignExcel(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opSignExcel, req)
}

func (t *soapTransport) VerifyCredential(ctx context.Context, req Request) (Result, error) {
	return t.call(ctx, opVerify, req)
}

func (t *soapTransport) call(ctx context.Context, op string, req Request) (Result, error) {
	token, err := mintToken(t.details, req.CertificateID, req.BearerToken)
	if err != nil {
		return Result{}, err
	}

	operation := soapOperation{
		XMLName:   xml.Name{Local: op},
		Xmlns:     signer1NS,
		CertID:    req.CertificateID,
		Pincode:   req.PIN,
		Token:     token,
		FieldName: req.FieldName,
	}
	if len(req.Document) > 0 {
		operation.InputFile = base64.StdEncoding.EncodeToString(req.Document)
	}
	if len(req.Image) > 0 {
		operation.Image = base64.StdEncoding.EncodeToString(req.Image)
	}
	if req.Placement != nil {
		operation.X = req.Placement.X
		operation.Y = req.Placement.Y
		operation.Width = req.Placement.Width
		operation.Height = req.Placement.Height
		operation.Page = req.Placement.Page
	}

	envelope := soapRequestEnvelope{
		SoapNS: soapEnvelopeNS,
		Body:   soapRequestBody{Operation: operation},
	}

	payload, err := xml.Marshal(envelope)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: marshal %s envelope: %w", op, err)
	}
	payload = append([]byte(xml.Header), payload...)

	resp, err := postWithRetry(ctx, t.opts, t.endpoint, payload, func(httpReq *http.Request) error {
		httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
		httpReq.Header.Set("SOAPAction", signer1NS+op)

		if t.basicAuth {
			password, err := t.opts.Decrypt(t.details.EncryptedPassword)
			if err != nil {
				return fmt.Errorf("signer1: decrypt basic-auth password: %w", err)
			}
			httpReq.SetBasicAuth(t.details.User, password)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("signer1: read %s response: %w", op, err)
	}

	if authorityFailureStatus(op, resp.StatusCode) {
		t.log.Warn("authority reported failure",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)))
		return Result{Code: GeneralError}, nil
	}

	var wire soapResponseEnvelope
	if err := xml.Unmarshal(respBody, &wire); err != nil {
		return Result{}, fmt.Errorf("signer1: parse %s envelope: %w", op, err)
	}

	if wire.Body.Fault != nil {
		// A fault is an authority-reported failure, same as HTTP 500.
		t.log.Warn("soap fault",
			zap.String("operation", op),
			zap.String("faultcode", wire.Body.Fault.Code),
			zap.String("faultstring", wire.Body.Fault.String))
		return Result{Code: GeneralError}, nil
	}

	result := Result{Code: ResCode(wire.Body.Response.Result)}
	if wire.Body.Response.SignedBytes != "" {
		result.SignedBytes, err = base64.StdEncoding.DecodeString(wire.Body.Response.SignedBytes)
		if err != nil {
			return Result{}, fmt.Errorf("signer1: decode %s signed bytes: %w", op, err)
		}
	}

	return result, nil
}
