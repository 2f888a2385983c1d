package icon

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Size is the edge length in pixels of every thumbnail.
const Size = 64

var (
	// ErrNoDrawable is returned when there is nothing to rasterize.
	ErrNoDrawable = errors.New("icon: no drawable")
	// ErrEmptyBitmap is returned for a bitmap with zero area.
	ErrEmptyBitmap = errors.New("icon: empty bitmap")
)

// Rasterize renders d into a Size×Size RGBA image.
//
// Bitmaps are scaled directly. Every other drawable is first painted onto a
// transparent canvas of its intrinsic size, clamped to at least 1×1, and that
// canvas is then scaled.
func Rasterize(d Drawable) (img image.Image, err error) {
	if d == nil {
		return nil, ErrNoDrawable
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("icon: rasterize panicked: %v", r)
		}
	}()

	var src image.Image
	switch v := d.(type) {
	case *BitmapDrawable:
		if v.Bitmap == nil || v.Bitmap.Bounds().Empty() {
			return nil, ErrEmptyBitmap
		}
		src = v.Bitmap
	default:
		w, h := d.IntrinsicSize()
		canvas := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
		d.Draw(canvas)
		src = canvas
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// pngBuffers recycles the encoder's scratch space between icons.
type pngBuffers struct {
	pool sync.Pool
}

func (p *pngBuffers) Get() *png.EncoderBuffer {
	if b, ok := p.pool.Get().(*png.EncoderBuffer); ok {
		return b
	}
	return nil
}

func (p *pngBuffers) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

// PNG is lossless; compression level is its only setting.
var encoder = &png.Encoder{
	CompressionLevel: png.DefaultCompression,
	BufferPool:       &pngBuffers{},
}

var outputs = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// EncodePNG rasterizes d and returns the PNG bytes.
func EncodePNG(d Drawable) ([]byte, error) {
	img, err := Rasterize(d)
	if err != nil {
		return nil, err
	}

	buf := outputs.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		outputs.Put(buf)
	}()

	if err := encoder.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("icon: encode png: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// EncodeBase64 rasterizes d and returns the PNG as standard base64 without
// line breaks.
func EncodeBase64(d Drawable) (string, error) {
	data, err := EncodePNG(d)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
