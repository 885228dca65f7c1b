// Package images decodes signature artifacts supplied by callers.
//
// Signature images arrive as base64 payloads, usually wrapped in a data URI
// with a declared mime prefix ("data:image/png;base64,...."). The local PDF
// primitive embeds PNG and JPEG directly; BMP payloads, still produced by
// some legacy capture pads, are transcoded to PNG first.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
)

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeBMP  = "image/bmp"
)

// Decode parses a caller-supplied image payload. It accepts either a data
// URI with a base64 body or a bare base64 string; the returned mime is the
// declared prefix, or empty when the payload carried none.
func Decode(payload string) (data []byte, mime string, err error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", nil
	}

	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		header, body, found := strings.Cut(payload[len("data:"):], ",")
		if !found {
			return nil, "", fmt.Errorf("images: malformed data uri")
		}
		mime = strings.TrimSuffix(header, ";base64")
		encoded = body
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("images: decode base64: %w", err)
	}

	return data, mime, nil
}

// EnsurePNG transcodes BMP image data to PNG. Payloads with any other
// declared mime pass through untouched.
func EnsurePNG(data []byte, mime string) ([]byte, error) {
	if mime != MimeBMP {
		return data, nil
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("images: decode bmp: %w", err)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("images: encode png: %w", err)
	}

	return out.Bytes(), nil
}
