// Implements a raster backend to render SVG documents,
// by wrapping rasterx.
package svgraster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/benoitkugler/svgopacity/svgicon"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/image/math/fixed"
)

// ErrDegenerateSize is returned when the document
// has a zero width or height, once rounded to pixels.
var ErrDegenerateSize = errors.New("svg has a zero width or height")

// Options controls the rendering.
type Options struct {
	// Logger receives warnings about content which can't be
	// painted, such as broken images. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Size returns the pixel size of the document,
// which is its intrinsic size, rounded.
func Size(doc *svgicon.Document) (w, h int) {
	return int(math.Round(doc.Width)), int(math.Round(doc.Height))
}

// Render rasterizes the document into a new image of
// size `Size(doc)`, starting from a fully transparent background.
// Paths are painted first, then images, then texts.
func Render(doc *svgicon.Document, opts Options) (*image.RGBA, error) {
	w, h := Size(doc)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w (%gx%g)", ErrDegenerateSize, doc.Width, doc.Height)
	}
	logger := opts.logger()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	doc.Icon.Transform = viewBoxTransform(doc)
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	doc.Icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	for _, ref := range doc.Images {
		drawImage(img, doc.Icon.Transform, ref, logger)
	}

	if len(doc.Texts) != 0 {
		if doc.Fonts == nil {
			logger.Warn("no font available, skipping text", zap.Int("texts", len(doc.Texts)))
		} else {
			tp := newTextPainter(doc.Fonts, NewRenderer(w, h, img), logger)
			for _, text := range doc.Texts {
				tp.drawText(doc.Icon.Transform, text)
			}
		}
	}

	logger.Debug("document rendered", zap.Int("width", w), zap.Int("height", h))
	return img, nil
}

// viewBoxTransform maps the view box onto the intrinsic size of the document.
func viewBoxTransform(doc *svgicon.Document) rasterx.Matrix2D {
	vb := doc.ViewBox
	target := svgicon.Bounds{W: doc.Width, H: doc.Height}
	return fit(target, vb.W, vb.H, doc.Stretch).Translate(-vb.X, -vb.Y)
}

// fit returns the transform mapping the (0, 0, w, h) rectangle into
// `target`, either stretched, or scaled uniformly and centered.
func fit(target svgicon.Bounds, w, h float64, stretch bool) rasterx.Matrix2D {
	if w <= 0 || h <= 0 {
		return rasterx.Identity.Translate(target.X, target.Y)
	}
	sx, sy := target.W/w, target.H/h
	if !stretch {
		s := math.Min(sx, sy)
		sx, sy = s, s
	}
	dx := target.X + (target.W-w*sx)/2
	dy := target.Y + (target.H-h*sy)/2
	return rasterx.Identity.Translate(dx, dy).Scale(sx, sy)
}

// Renderer draws path commands, filling and stroking
// them with solid colors.
type Renderer struct {
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewRenderer returns a renderer drawing into `dst`, with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
func NewRenderer(width, height int, dst draw.Image) *Renderer {
	return &Renderer{
		dasher: rasterx.NewDasher(width, height, rasterx.NewScannerGV(width, height, dst, dst.Bounds())),
		filler: rasterx.NewFiller(width, height, rasterx.NewScannerGV(width, height, dst, dst.Bounds())),
	}
}

func (rd *Renderer) Clear() {
	rd.dasher.Clear()
	rd.filler.Clear()
}

func (rd *Renderer) SetWinding(useNonZeroWinding bool) {
	rd.dasher.SetWinding(useNonZeroWinding)
	rd.filler.SetWinding(useNonZeroWinding)
}

// paintColor applies the paint opacity to its color
func paintColor(p svgicon.Paint) color.NRGBA {
	c := color.NRGBAModel.Convert(p.Color).(color.NRGBA)
	c.A = uint8(math.Round(float64(c.A) * p.Opacity))
	return c
}

func (rd *Renderer) SetFillColor(p svgicon.Paint) {
	rd.filler.SetColor(paintColor(p))
}

func (rd *Renderer) SetStrokeColor(p svgicon.Paint) {
	rd.dasher.SetColor(paintColor(p))
}

// SetStrokeOptions sets a solid stroke, with
// butt caps and miter joins, of the given width in pixels.
func (rd *Renderer) SetStrokeOptions(lineWidth float64) {
	rd.dasher.SetStroke(
		fixed.Int26_6(lineWidth*64), fixed.Int26_6(4*64), rasterx.ButtCap,
		nil, rasterx.FlatGap, rasterx.Miter, nil, 0,
	)
}

func (rd *Renderer) Start(a fixed.Point26_6) {
	rd.filler.Start(a)
	rd.dasher.Start(a)
}

func (rd *Renderer) Line(b fixed.Point26_6) {
	rd.filler.Line(b)
	rd.dasher.Line(b)
}

func (rd *Renderer) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	rd.filler.QuadBezier(b, c)
	rd.dasher.QuadBezier(b, c)
}

func (rd *Renderer) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	rd.filler.CubeBezier(b, c, d)
	rd.dasher.CubeBezier(b, c, d)
}

func (rd *Renderer) Stop(closeLoop bool) {
	rd.filler.Stop(closeLoop)
	rd.dasher.Stop(closeLoop)
}

func (rd *Renderer) Fill() {
	rd.filler.Draw()
}

func (rd *Renderer) Stroke() {
	rd.dasher.Draw()
}
