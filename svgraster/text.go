package svgraster

import (
	"math"

	"github.com/benoitkugler/svgopacity/svgicon"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/shaping"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/image/math/fixed"
)

// textPainter shapes text runs and draws their glyph
// outlines with a Renderer.
type textPainter struct {
	fonts     *fontscan.FontMap
	segmenter shaping.Segmenter
	shaper    shaping.HarfbuzzShaper
	renderer  *Renderer
	path      rasterx.Path // buffer
	logger    *zap.Logger
}

func newTextPainter(fonts *fontscan.FontMap, renderer *Renderer, logger *zap.Logger) *textPainter {
	return &textPainter{fonts: fonts, renderer: renderer, logger: logger}
}

// shapedRun is a text run with its glyphs
type shapedRun struct {
	svgicon.TextRun
	outputs []shaping.Output
	advance float64 // in user units
}

func (tp *textPainter) shape(run svgicon.TextRun) shapedRun {
	out := shapedRun{TextRun: run}
	aspect := font.Aspect{Style: font.StyleNormal, Weight: font.Weight(run.Font.Weight)}
	if run.Font.Italic {
		aspect.Style = font.StyleItalic
	}
	tp.fonts.SetQuery(fontscan.Query{Families: run.Font.Families, Aspect: aspect})

	text := []rune(run.Content)
	input := shaping.Input{
		Text:      text,
		RunStart:  0,
		RunEnd:    len(text),
		Direction: di.DirectionLTR,
		Size:      fixed.Int26_6(math.Round(run.Font.Size * 64)),
	}
	for _, segment := range tp.segmenter.Split(input, tp.fonts) {
		if segment.Face == nil {
			tp.logger.Debug("no font for text", zap.String("text", string(text[segment.RunStart:segment.RunEnd])))
			continue
		}
		output := tp.shaper.Shape(segment)
		out.outputs = append(out.outputs, output)
		out.advance += fixedToFloat(output.Advance)
	}
	return out
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// chunkShift returns the horizontal offset applied to a text chunk
// of the given width.
func chunkShift(anchor svgicon.Anchor, width float64) float64 {
	switch anchor {
	case svgicon.AnchorMiddle:
		return -width / 2
	case svgicon.AnchorEnd:
		return -width
	default:
		return 0
	}
}

// drawText paints a <text> element. `base` maps the user space
// to the image pixels.
func (tp *textPainter) drawText(base rasterx.Matrix2D, text svgicon.Text) {
	runs := make([]shapedRun, len(text.Runs))
	for i, run := range text.Runs {
		runs[i] = tp.shape(run)
	}

	var x, y float64 // current text position
	for start := 0; start < len(runs); {
		// a chunk starts with each absolute X position
		end := start + 1
		for end < len(runs) && !runs[end].AbsX {
			end++
		}
		chunk := runs[start:end]
		var width float64
		for i, run := range chunk {
			width += run.advance
			if i != 0 {
				width += run.DX
			}
		}
		shift := chunkShift(chunk[0].Anchor, width)

		for _, run := range chunk {
			if run.AbsX {
				x = run.X
			}
			if run.AbsY {
				y = run.Y
			}
			x += run.DX
			y += run.DY
			tp.drawRun(base, run, x+shift, y)
			x += run.advance
		}
		start = end
	}
}

// drawRun fills then strokes the glyphs of `run`,
// whose baseline starts at (x, y)
func (tp *textPainter) drawRun(base rasterx.Matrix2D, run shapedRun, x, y float64) {
	fill := run.Fill.Color != nil && run.Fill.Opacity > 0
	stroke := run.Stroke.Color != nil && run.Stroke.Opacity > 0 && run.LineWidth > 0
	if !fill && !stroke {
		return
	}

	m := base.Mult(run.Transform)
	rd := tp.renderer
	rd.Clear()
	rd.SetWinding(true) // glyph outlines use the non-zero rule
	if fill {
		rd.SetFillColor(run.Fill)
	}
	if stroke {
		rd.SetStrokeColor(run.Stroke)
		rd.SetStrokeOptions(run.LineWidth * math.Sqrt(math.Abs(m.A*m.D-m.B*m.C)))
	}

	adder := &rasterx.MatrixAdder{Adder: rd}
	for _, output := range run.outputs {
		scale := run.Font.Size / float64(output.Face.Upem())
		for _, g := range output.Glyphs {
			outline, ok := output.Face.GlyphData(g.GlyphID).(font.GlyphOutline)
			if ok && len(outline.Segments) != 0 {
				gx := x + fixedToFloat(g.XOffset)
				gy := y - fixedToFloat(g.YOffset)
				// font units have the Y axis going up
				adder.M = m.Translate(gx, gy).Scale(scale, -scale)
				tp.outlinePath(outline).AddTo(adder)
			}
			x += fixedToFloat(g.XAdvance)
			y -= fixedToFloat(g.YAdvance)
		}
	}

	if fill {
		rd.Fill()
	}
	if stroke {
		rd.Stroke()
	}
	rd.Clear()
}

// outlinePath converts a glyph outline to a path,
// in font units
func (tp *textPainter) outlinePath(outline font.GlyphOutline) rasterx.Path {
	tp.path.Clear()
	for i, s := range outline.Segments {
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			if i != 0 {
				tp.path.Stop(true)
			}
			tp.path.Start(segmentPoint(s.Args[0]))
		case opentype.SegmentOpLineTo:
			tp.path.Line(segmentPoint(s.Args[0]))
		case opentype.SegmentOpQuadTo:
			tp.path.QuadBezier(segmentPoint(s.Args[0]), segmentPoint(s.Args[1]))
		case opentype.SegmentOpCubeTo:
			tp.path.CubeBezier(segmentPoint(s.Args[0]), segmentPoint(s.Args[1]), segmentPoint(s.Args[2]))
		}
	}
	tp.path.Stop(true)
	return tp.path
}

func segmentPoint(p opentype.SegmentPoint) fixed.Point26_6 {
	return rasterx.ToFixedP(float64(p.X), float64(p.Y))
}
