package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/webp"
)

// Decode sniffs the image format of data and decodes it. PNG, JPEG and WebP
// are supported; vector and XML resources are not.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBitmap
	}

	mt := mimetype.Detect(data)
	var (
		img image.Image
		err error
	)
	switch {
	case mt.Is("image/png"):
		img, err = png.Decode(bytes.NewReader(data))
	case mt.Is("image/jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case mt.Is("image/webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("icon: unsupported format %s", mt.String())
	}
	if err != nil {
		return nil, fmt.Errorf("icon: decode %s: %w", mt.String(), err)
	}
	return img, nil
}
