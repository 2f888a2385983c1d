package adb

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"
	"strings"

	"github.com/blackwell-systems/appsize/internal/icon"
	"github.com/blackwell-systems/appsize/internal/inventory"
)

// ApkIcons loads launcher icons out of installed APKs.
type ApkIcons struct {
	c *Client
}

// Icon returns the launcher icon of the package's APK, reading it from the
// copy pulled for the label when there is one. When the APK ships separate
// foreground and background layers the result is an adaptive drawable;
// otherwise the densest launcher bitmap is used.
func (a *ApkIcons) Icon(ctx context.Context, pkg inventory.Package) (icon.Drawable, error) {
	local, err := a.c.pullAPK(ctx, pkg)
	if err != nil {
		return nil, err
	}
	zr, err := zip.OpenReader(local)
	if err != nil {
		return nil, fmt.Errorf("failed to open apk for %s: %w", pkg.Name, err)
	}
	defer zr.Close()

	var hint string
	if a.c.AaptPath != "" {
		if b, err := a.c.badging(ctx, pkg); err == nil {
			hint = b.BestIcon()
		}
	}
	return launcherIcon(&zr.Reader, hint)
}

// Retain keeps pulled APKs on the host until the matching Release.
func (a *ApkIcons) Retain() { a.c.apks.retain() }

// Release deletes the pulled APKs once no listing holds them.
func (a *ApkIcons) Release() error { return a.c.apks.release() }

// Screen density buckets, densest first wins.
var densityRank = map[string]int{
	"xxxhdpi": 640,
	"xxhdpi":  480,
	"xhdpi":   320,
	"hdpi":    240,
	"tvdpi":   213,
	"mdpi":    160,
	"ldpi":    120,
	"nodpi":   1,
}

var rasterExt = map[string]bool{".png": true, ".webp": true, ".jpg": true, ".jpeg": true}

type resource struct {
	file    *zip.File
	density int
}

// resourceIndex groups raster mipmap/drawable resources by base name
// (e.g. "ic_launcher_foreground"), keeping the densest variant.
type resourceIndex map[string]resource

func indexResources(zr *zip.Reader) resourceIndex {
	idx := make(resourceIndex)
	for _, f := range zr.File {
		dir, file := path.Split(f.Name)
		ext := strings.ToLower(path.Ext(file))
		if !strings.HasPrefix(dir, "res/") || !rasterExt[ext] || strings.HasSuffix(file, ".9.png") {
			continue
		}
		folder := strings.TrimSuffix(strings.TrimPrefix(dir, "res/"), "/")
		if !strings.HasPrefix(folder, "mipmap") && !strings.HasPrefix(folder, "drawable") {
			continue
		}

		density := 0
		for _, q := range strings.Split(folder, "-")[1:] {
			if d, ok := densityRank[q]; ok {
				density = d
			}
		}
		name := strings.TrimSuffix(file, path.Ext(file))
		if cur, ok := idx[name]; !ok || density > cur.density {
			idx[name] = resource{file: f, density: density}
		}
	}
	return idx
}

func (idx resourceIndex) image(name string) (image.Image, error) {
	r, ok := idx[name]
	if !ok {
		return nil, fmt.Errorf("resource %s not found", name)
	}
	return readImage(r.file)
}

func readImage(f *zip.File) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return icon.Decode(data)
}

// launcherIcon picks the icon out of an APK. hint is an icon path reported
// by aapt, if any.
func launcherIcon(zr *zip.Reader, hint string) (icon.Drawable, error) {
	if hint != "" && rasterExt[strings.ToLower(path.Ext(hint))] {
		if f := findFile(zr, hint); f != nil {
			if img, err := readImage(f); err == nil {
				return &icon.BitmapDrawable{Bitmap: img}, nil
			}
		}
	}

	idx := indexResources(zr)
	adaptive := findFile(zr, "res/mipmap-anydpi-v26/ic_launcher.xml") != nil ||
		(hint != "" && strings.HasSuffix(hint, ".xml"))

	for _, base := range []string{"ic_launcher", "ic_launcher_round"} {
		if adaptive {
			if d, err := adaptiveIcon(idx, base); err == nil {
				return d, nil
			}
		}
		if img, err := idx.image(base); err == nil {
			return &icon.BitmapDrawable{Bitmap: img}, nil
		}
		if d, err := adaptiveIcon(idx, base); err == nil {
			return d, nil
		}
	}
	for _, base := range []string{"icon", "app_icon"} {
		if img, err := idx.image(base); err == nil {
			return &icon.BitmapDrawable{Bitmap: img}, nil
		}
	}
	return nil, errors.New("no launcher icon in apk")
}

// adaptiveIcon builds a layered icon from <base>_foreground and
// <base>_background. A missing raster background is painted white, which is
// what launchers show for colour backgrounds they cannot resolve.
func adaptiveIcon(idx resourceIndex, base string) (icon.Drawable, error) {
	fg, err := idx.image(base + "_foreground")
	if err != nil {
		return nil, err
	}
	bg := icon.Layer{Color: color.White}
	if img, err := idx.image(base + "_background"); err == nil {
		bg = icon.Layer{Image: img}
	}
	return &icon.AdaptiveDrawable{Background: bg, Foreground: icon.Layer{Image: fg}}, nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
