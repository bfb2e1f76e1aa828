package dataurl

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	return img
}

func TestEncodePNGRoundTrip(t *testing.T) {
	src := testImage(12, 7)
	s, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Errorf("Unexpected prefix: %.30s", s)
	}
	img, err := DecodeImage(s)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("Expected bounds %v, got %v", src.Bounds(), img.Bounds())
	}
	r1, g1, b1, _ := src.At(5, 3).RGBA()
	r2, g2, b2, _ := img.At(5, 3).RGBA()
	if r1 != r2 || g1 != g2 || b1 != b2 {
		t.Error("Expected PNG to be lossless")
	}
}

func TestEncodeJPEGKeepsResolution(t *testing.T) {
	s, err := EncodeJPEG(testImage(64, 48), 80)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	mime, _, err := Decode(s)
	if err != nil || mime != MimeJPEG {
		t.Fatalf("Expected image/jpeg, got %q (%v)", mime, err)
	}
	img, err := DecodeImage(s)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Expected 64x48, got %v", img.Bounds())
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"hello",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,@@@",
	} {
		if _, _, err := Decode(s); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", s, err)
		}
	}
	if _, err := DecodeImage(Encode("text/plain", []byte("hi"))); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected non-image media type to be rejected, got %v", err)
	}
}
