// Package qrcode renders QR codes as PNG images for payment and share links.
package qrcode

import (
	"errors"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ErrEmptyContent is returned when there is nothing to encode.
var ErrEmptyContent = errors.New("qrcode: empty content")

// PNG encodes content at medium error correction. size <= 0 uses
// DefaultSize; sizes are capped at 1024.
func PNG(content string, size int) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > 1024 {
		size = 1024
	}
	return goqr.Encode(content, goqr.Medium, size)
}
