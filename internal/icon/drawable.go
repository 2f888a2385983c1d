// Package icon turns application icons into small PNG thumbnails.
//
// Icons arrive as a Drawable: either a plain bitmap, a layered adaptive icon
// that has to be composited first, or anything else that knows its intrinsic
// size and how to paint itself. Rasterize produces a fixed Size×Size image and
// EncodeBase64 turns that into the unwrapped base64 PNG sent across the bridge.
package icon

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Drawable is anything that can paint an icon onto a canvas.
type Drawable interface {
	// IntrinsicSize reports the natural size in pixels. Values below 1 mean
	// the drawable has no natural size.
	IntrinsicSize() (width, height int)
	// Draw paints the drawable over the full bounds of dst.
	Draw(dst draw.Image)
}

// BitmapDrawable is a decoded raster icon. Rasterize scales it directly
// without going through an intermediate canvas.
type BitmapDrawable struct {
	Bitmap image.Image
}

func (d *BitmapDrawable) IntrinsicSize() (int, int) {
	if d.Bitmap == nil {
		return 0, 0
	}
	b := d.Bitmap.Bounds()
	return b.Dx(), b.Dy()
}

func (d *BitmapDrawable) Draw(dst draw.Image) {
	if d.Bitmap == nil {
		return
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), d.Bitmap, d.Bitmap.Bounds(), xdraw.Over, nil)
}

// Layer is one plane of an adaptive icon: an image, or a solid colour when
// Image is nil.
type Layer struct {
	Image image.Image
	Color color.Color
}

func (l Layer) empty() bool {
	return l.Image == nil && l.Color == nil
}

func (l Layer) drawOver(dst draw.Image) {
	switch {
	case l.Image != nil:
		xdraw.BiLinear.Scale(dst, dst.Bounds(), l.Image, l.Image.Bounds(), xdraw.Over, nil)
	case l.Color != nil:
		draw.Draw(dst, dst.Bounds(), image.NewUniform(l.Color), image.Point{}, draw.Over)
	}
}

// AdaptiveDrawable is a layered launcher icon. The background is painted
// first, then the foreground, both stretched over the canvas.
type AdaptiveDrawable struct {
	Background Layer
	Foreground Layer
	// Width and Height override the intrinsic size. When zero the larger of
	// the two layer images decides.
	Width, Height int
}

func (d *AdaptiveDrawable) IntrinsicSize() (int, int) {
	if d.Width > 0 && d.Height > 0 {
		return d.Width, d.Height
	}
	w, h := 0, 0
	for _, l := range []Layer{d.Background, d.Foreground} {
		if l.Image == nil {
			continue
		}
		b := l.Image.Bounds()
		w = max(w, b.Dx())
		h = max(h, b.Dy())
	}
	return w, h
}

func (d *AdaptiveDrawable) Draw(dst draw.Image) {
	d.Background.drawOver(dst)
	d.Foreground.drawOver(dst)
}
