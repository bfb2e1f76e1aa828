// Package dataurl encodes and decodes images as RFC 2397 data URLs, the
// inline encoding used for signature and photo answers.
package dataurl

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	// Register decoders for uploaded files.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrMalformed is returned for strings that are not base64 data URLs.
var ErrMalformed = errors.New("malformed data URL")

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

// Encode wraps raw bytes in a base64 data URL.
func Encode(mime string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return Encode(MimePNG, buf.Bytes()), nil
}

// EncodeJPEG compresses img at quality (1-100) and native resolution.
func EncodeJPEG(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return Encode(MimeJPEG, buf.Bytes()), nil
}

// Decode splits a data URL into its media type and payload.
func Decode(s string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformed
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return mime, data, nil
}

// DecodeImage decodes the image carried by a data URL.
func DecodeImage(s string) (image.Image, error) {
	mime, data, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if !IsImage(mime) {
		return nil, fmt.Errorf("%w: media type %q is not an image", ErrMalformed, mime)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mime, err)
	}
	return img, nil
}

// IsImage reports whether mime names an image type.
func IsImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
