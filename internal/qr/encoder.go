package qr

import (
	"encoding/base64"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/cockroachdb/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// Encoder renders redemption and scan codes as PNG QR images. A failure
// here aborts the purchase that requested it.
type Encoder struct {
	size int
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{size: size}
}

// Encode returns the code as a base64 PNG data URI.
func (e *Encoder) Encode(text string) (string, error) {
	if text == "" {
		return "", errors.Wrap(domain.ErrEncodingFailed, "empty code")
	}
	png, err := qrcode.Encode(text, qrcode.Medium, e.size)
	if err != nil {
		return "", errors.Wrapf(domain.ErrEncodingFailed, "encoding %q: %v", text, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
