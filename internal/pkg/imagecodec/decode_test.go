package imagecodec_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/samirrijal/campusgeo/internal/pkg/imagecodec"
)

func encode(t *testing.T, img image.Image, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	src := imaging.New(16, 9, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	tests := []struct {
		name   string
		format imaging.Format
	}{
		{"png", imaging.PNG},
		{"jpeg", imaging.JPEG},
		{"gif", imaging.GIF},
		{"bmp", imaging.BMP},
		{"tiff", imaging.TIFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := imagecodec.Decode(encode(t, src, tt.format))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
				t.Errorf("expected 16x9, got %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := imagecodec.Decode(nil); !errors.Is(err, imagecodec.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := imagecodec.Decode([]byte("definitely not an image")); err == nil {
		t.Fatal("expected an error for garbage bytes")
	}
}

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	got, err := imagecodec.Format(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "png" {
		t.Errorf("expected png, got %q", got)
	}
}

func TestDecodeLimit_RejectsOversizedImage(t *testing.T) {
	data := encode(t, imaging.New(40, 30, color.NRGBA{A: 255}), imaging.PNG)

	if _, err := imagecodec.DecodeLimit(data, 40*30); err != nil {
		t.Fatalf("image at the limit should decode: %v", err)
	}
	_, err := imagecodec.DecodeLimit(data, 40*30-1)
	if !errors.Is(err, imagecodec.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := imagecodec.DecodeLimit(data, 0); err != nil {
		t.Fatalf("zero limit disables the check: %v", err)
	}
}
