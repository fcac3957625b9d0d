package svgraster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // load image formats for <image> elements
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/benoitkugler/svgopacity/svgicon"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage opens and decodes the content of an <image> element.
func decodeImage(ref svgicon.ImageRef) (image.Image, error) {
	var r io.Reader
	if ref.Data != nil {
		r = bytes.NewReader(ref.Data)
	} else {
		f, err := os.Open(ref.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	img, _, err := image.Decode(r)
	return img, err
}

// imageTransform returns the transform from the image pixels
// to the user space of the <image> element.
func imageTransform(ref svgicon.ImageRef, bounds image.Rectangle) rasterx.Matrix2D {
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	target := svgicon.Bounds{X: ref.X, Y: ref.Y, W: ref.Width, H: ref.Height}
	switch {
	case !ref.HasWidth && !ref.HasHeight:
		target.W, target.H = iw, ih
	case !ref.HasWidth:
		target.W = target.H * iw / ih
	case !ref.HasHeight:
		target.H = target.W * ih / iw
	}
	return fit(target, iw, ih, ref.Stretch).Translate(float64(-bounds.Min.X), float64(-bounds.Min.Y))
}

// pixelOffset returns the translation of `m`, if `m` is a translation
// by whole pixels.
func pixelOffset(m rasterx.Matrix2D) (image.Point, bool) {
	if m.A != 1 || m.B != 0 || m.C != 0 || m.D != 1 {
		return image.Point{}, false
	}
	if m.E != math.Trunc(m.E) || m.F != math.Trunc(m.F) {
		return image.Point{}, false
	}
	return image.Pt(int(m.E), int(m.F)), true
}

// drawImage paints an <image> element. Images which can't be
// decoded are skipped.
func drawImage(dst draw.Image, base rasterx.Matrix2D, ref svgicon.ImageRef, logger *zap.Logger) {
	src, err := decodeImage(ref)
	if err != nil {
		logger.Warn("skipping image", zap.String("href", truncate(ref.Href)), zap.Error(err))
		return
	}
	sr := src.Bounds()
	if sr.Empty() || ref.Opacity <= 0 {
		return
	}
	if (ref.HasWidth && ref.Width <= 0) || (ref.HasHeight && ref.Height <= 0) {
		return
	}

	var mask image.Image
	if ref.Opacity < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(math.Round(ref.Opacity * 0xffff))})
	}

	m := base.Mult(ref.Transform).Mult(imageTransform(ref, sr))
	if offset, ok := pixelOffset(m); ok {
		r := sr.Add(offset)
		draw.DrawMask(dst, r, src, sr.Min, mask, image.Point{}, draw.Over)
		return
	}
	s2d := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	draw.BiLinear.Transform(dst, s2d, src, sr, draw.Over, &draw.Options{SrcMask: mask})
}

// truncate shortens data URIs for logging
func truncate(href string) string {
	const maxLen = 64
	if len(href) <= maxLen {
		return href
	}
	return fmt.Sprintf("%s...(%d bytes)", href[:maxLen], len(href))
}
