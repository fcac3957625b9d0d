package svgicon

import (
	"encoding/xml"
	"strings"
)

// textBuilder accumulates the runs of a <text> element.
type textBuilder struct {
	runs []TextRun
	// position attributes waiting for the next content
	pending TextRun
}

// startRun reads the positioning attributes of a <text> or <tspan>.
// The style has already been pushed.
func (tb *textBuilder) startRun(c *docCursor, attrs []xml.Attr) error {
	for _, attr := range attrs {
		var (
			v   float64
			err error
		)
		switch attr.Name.Local {
		case "x":
			v, err = firstLength(c, attr.Value, c.viewBoxWidth())
			tb.pending.X, tb.pending.AbsX = v, true
		case "y":
			v, err = firstLength(c, attr.Value, c.viewBoxHeight())
			tb.pending.Y, tb.pending.AbsY = v, true
		case "dx":
			v, err = firstLength(c, attr.Value, c.viewBoxWidth())
			tb.pending.DX += v
		case "dy":
			v, err = firstLength(c, attr.Value, c.viewBoxHeight())
			tb.pending.DY += v
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// firstLength reads the first value of a list of lengths: per-glyph
// positioning is not supported.
func firstLength(c *docCursor, v string, ref float64) (float64, error) {
	fields := splitOnCommaOrSpace(v)
	if len(fields) == 0 {
		return 0, nil
	}
	return parseLength(fields[0], c.currentStyle().fontSize, ref)
}

// addContent adds a piece of character data, styled with `style`.
func (tb *textBuilder) addContent(content string, style *pathStyle) {
	content = collapseSpaces(content)
	if content == "" {
		return
	}
	run := tb.pending
	tb.pending = TextRun{}

	run.Content = content
	run.Anchor = style.anchor
	run.Font = FontRequest{
		Families: style.fontFamily,
		Size:     style.fontSize,
		Weight:   style.fontWeight,
		Italic:   style.italic,
	}
	run.Fill = Paint{Color: style.fill, Opacity: style.fillOpacity * style.opacity}
	run.Stroke = Paint{Color: style.stroke, Opacity: style.lineOpacity * style.opacity}
	run.LineWidth = style.lineWidth
	if !style.visible {
		// still takes its place in the text
		run.Fill.Color, run.Stroke.Color = nil, nil
	}
	run.Transform = style.transform
	tb.runs = append(tb.runs, run)
}

// build applies the whitespace rules of xml:space="default" across
// the runs, and drops the empty ones.
func (tb *textBuilder) build() Text {
	var out Text
	for i, run := range tb.runs {
		if i == 0 || run.AbsX {
			run.Content = strings.TrimLeft(run.Content, " ")
		} else if prev := tb.runs[i-1]; strings.HasSuffix(prev.Content, " ") {
			run.Content = strings.TrimLeft(run.Content, " ")
		}
		tb.runs[i] = run
	}
	if n := len(tb.runs); n != 0 {
		tb.runs[n-1].Content = strings.TrimRight(tb.runs[n-1].Content, " ")
	}
	var carry TextRun // position of dropped runs
	for _, run := range tb.runs {
		if run.Content == "" {
			carry = mergePosition(carry, run)
			continue
		}
		run = mergePosition(carry, run)
		carry = TextRun{}
		out.Runs = append(out.Runs, run)
	}
	return out
}

// mergePosition returns `run` with the positioning of `from`
// applied first.
func mergePosition(from, run TextRun) TextRun {
	if from.AbsX && !run.AbsX {
		run.X, run.AbsX = from.X, true
	}
	if from.AbsY && !run.AbsY {
		run.Y, run.AbsY = from.Y, true
	}
	run.DX += from.DX
	run.DY += from.DY
	return run
}

// collapseSpaces converts newlines and tabs to spaces
// and collapses consecutive spaces.
func collapseSpaces(s string) string {
	s = strings.NewReplacer("\r", "", "\n", " ", "\t", " ").Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
