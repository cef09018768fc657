// Package codec converts between the base64 data URLs that travel through
// forms and JSON bodies and the raw bytes that get rendered and stored.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrDecode = errors.New("invalid base64 payload")

var pdfMagic = []byte("%PDF")

// Decode strips an optional "data:<mime>;base64," prefix and decodes the rest.
func Decode(s string) ([]byte, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: data url has no payload", ErrDecode)
		}
		payload = payload[comma+1:]
	}

	out, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// canvas exports are padded but hand built payloads often are not
		out, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	return out, nil
}

func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func EncodeDataURL(mimeType string, b []byte) string {
	return "data:" + mimeType + ";base64," + Encode(b)
}

// IsValidPDF is a header sniff, not a structural check.
func IsValidPDF(b []byte) bool {
	return len(b) >= len(pdfMagic) && bytes.Equal(b[:len(pdfMagic)], pdfMagic)
}
