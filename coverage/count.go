// Implements the measure of how much of a rendered
// image is covered by fully opaque pixels, and its
// textual report.
package coverage

import (
	"image"
)

// Count returns the number of pixels of `img` whose alpha channel
// is maximal. Pixels with partial transparency (such as anti-aliased
// edges) are not counted.
func Count(img image.Image) int {
	switch img := img.(type) {
	case *image.RGBA:
		return countBytes(img.Pix, img.Stride, img.Rect, 4, 3)
	case *image.NRGBA:
		return countBytes(img.Pix, img.Stride, img.Rect, 4, 3)
	case *image.Alpha:
		return countBytes(img.Pix, img.Stride, img.Rect, 1, 0)
	}

	var (
		n int
		b = img.Bounds()
	)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0xffff {
				n++
			}
		}
	}
	return n
}

// countBytes scans the alpha bytes of a pixel buffer.
// `size` is the number of bytes per pixel and `offset`
// the position of the alpha byte inside a pixel.
// The stride may be larger than the row (sub images).
func countBytes(pix []uint8, stride int, r image.Rectangle, size, offset int) int {
	n := 0
	w := r.Dx() * size
	for row := 0; row < r.Dy(); row++ {
		line := pix[row*stride : row*stride+w]
		for i := offset; i < len(line); i += size {
			if line[i] == 0xff {
				n++
			}
		}
	}
	return n
}
