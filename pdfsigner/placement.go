package pdfsigner

import (
	"crypto"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/digitorus/pdf"
)

// fieldPlacement locates the named signature field's widget rectangle and
// its 1-based page number. Signature widgets are merged field/annotation
// dictionaries, so the field name is read from the page annotations.
func fieldPlacement(rdr *pdf.Reader, name string) (uint32, [4]float64, error) {
	var rect [4]float64

	if name == "" {
		return 0, rect, &Error{Status: StatusFieldNotFound, Err: fmt.Errorf("empty field name")}
	}

	pages := collectPages(rdr.Trailer().Key("Root").Key("Pages"))
	for i, page := range pages {
		annots := page.Key("Annots")
		if annots.Kind() != pdf.Array {
			continue
		}

		for j := 0; j < annots.Len(); j++ {
			annot := annots.Index(j)
			if annot.Key("T").RawString() != name {
				continue
			}

			r := annot.Key("Rect")
			if r.Kind() != pdf.Array || r.Len() < 4 {
				return 0, rect, &Error{
					Status: StatusFieldNotFound,
					Err:    fmt.Errorf("field %q has no usable rectangle", name),
				}
			}
			for k := 0; k < 4; k++ {
				rect[k] = r.Index(k).Float64()
			}

			return uint32(i + 1), rect, nil
		}
	}

	return 0, rect, &Error{
		Status: StatusFieldNotFound,
		Err:    fmt.Errorf("no signature field named %q", name),
	}
}

// collectPages walks the page tree in document order.
func collectPages(node pdf.Value) []pdf.Value {
	switch node.Key("Type").String() {
	case "/Pages":
		var pages []pdf.Value
		kids := node.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			pages = append(pages, collectPages(kids.Index(i))...)
		}
		return pages
	case "/Page":
		return []pdf.Value{node}
	default:
		return nil
	}
}

// signingKey wraps the configured key so RSA signatures use PSS padding
// with a salt length equal to the digest size. Non-RSA keys and the
// PKCS#1 v1.5 option bypass the wrapper.
func (s *Service) signingKey() crypto.Signer {
	if !s.usePSS {
		return s.signer
	}
	if _, ok := s.signer.Public().(*rsa.PublicKey); !ok {
		return s.signer
	}
	return pssSigner{inner: s.signer}
}

type pssSigner struct {
	inner crypto.Signer
}

func (p pssSigner) Public() crypto.PublicKey { return p.inner.Public() }

func (p pssSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if _, ok := opts.(*rsa.PSSOptions); !ok {
		opts = &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
			Hash:       opts.HashFunc(),
		}
	}
	return p.inner.Sign(rand, digest, opts)
}
