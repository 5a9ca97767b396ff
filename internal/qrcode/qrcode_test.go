package qrcode

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func TestPNG_EncodesImage(t *testing.T) {
	b, err := PNG("https://opc-agent.example/pay", 0)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w := img.Bounds().Dx(); w != DefaultSize {
		t.Fatalf("width = %d; want %d", w, DefaultSize)
	}
}

func TestPNG_CapsSize(t *testing.T) {
	b, err := PNG("x", 5000)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, _ := png.Decode(bytes.NewReader(b))
	if w := img.Bounds().Dx(); w != 1024 {
		t.Fatalf("width = %d; want 1024", w)
	}
}

func TestPNG_Empty(t *testing.T) {
	if _, err := PNG("  ", 100); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}
