package svgicon

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const svgNamespace = "http://www.w3.org/2000/svg"

type (
	// pathStyle holds the inherited style state
	// relevant for text and images
	pathStyle struct {
		fill, stroke             color.Color // nil for none
		color                    color.Color // for currentColor
		fillOpacity, lineOpacity float64
		opacity                  float64 // group opacity, accumulated
		lineWidth                float64
		fontFamily               []string
		fontSize                 float64
		fontWeight               float32
		italic                   bool
		anchor                   Anchor
		transform                rasterx.Matrix2D // current transform
		displayNone              bool
		visible                  bool
	}

	// docCursor is used while scanning SVG files
	docCursor struct {
		doc        *Document
		styleStack []pathStyle
		points     []float64
		errorMode  ErrorMode
		logger     *zap.Logger

		// root element size attributes
		rootSeen      bool
		width, height string
		viewBox       Bounds
		hasViewBox    bool

		hidden int // depth inside elements which are not rendered
		text   *textBuilder

		// offsets of the current token in the decoded stream
		tokenStart, tokenEnd int64
		cut                  *streamEdit // pending removal of a display:none subtree
		cutContent           bool        // only the content is removed
		edits                []streamEdit
		recolors             []recolor
	}
)

// defaultStyle fills black, with full opacity and no stroke
var defaultStyle = pathStyle{
	fill:        color.Black,
	color:       color.Black,
	fillOpacity: 1,
	lineOpacity: 1,
	opacity:     1,
	lineWidth:   1,
	fontFamily:  []string{"serif"},
	fontSize:    12,
	fontWeight:  400,
	transform:   rasterx.Identity,
	visible:     true,
}

func (c *docCursor) currentStyle() *pathStyle { return &c.styleStack[len(c.styleStack)-1] }

// scanDocument reads the root size and the elements oksvg does not
// handle, checking that the XML is well formed.
// It also returns the content to give to oksvg, with the values
// it does not support rewritten.
func scanDocument(data []byte, baseDir string, errMode ErrorMode, logger *zap.Logger) (*Document, []byte, error) {
	doc := &Document{BaseDir: baseDir}
	cursor := &docCursor{
		doc:        doc,
		styleStack: []pathStyle{defaultStyle},
		errorMode:  errMode,
		logger:     logger,
	}
	input := bytes.NewReader(data)
	var stream decodedStream
	decoder := xml.NewDecoder(input)
	decoder.CharsetReader = func(label string, r io.Reader) (io.Reader, error) {
		cr, err := charset.NewReaderLabel(label, r)
		if err != nil {
			return nil, err
		}
		// token offsets now refer to the converted content
		stream.label = label
		stream.prefix = data[:len(data)-input.Len()]
		stream.converted = new(bytes.Buffer)
		return io.TeeReader(cr, stream.converted), nil
	}
	for {
		start := decoder.InputOffset()
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				if !cursor.rootSeen {
					return nil, nil, &ParseError{Err: errNoElement}
				}
				break
			}
			return nil, nil, &ParseError{Err: err}
		}
		cursor.tokenStart, cursor.tokenEnd = start, decoder.InputOffset()
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			if err = cursor.readStartElement(se); err != nil {
				return nil, nil, err
			}
			if needsRecolor(se.Attr) {
				cursor.recolors = append(cursor.recolors, recolor{
					start:   cursor.tokenStart,
					end:     cursor.tokenEnd,
					current: colorValue(cursor.currentStyle().color),
				})
			}
		case xml.EndElement:
			cursor.readEndElement(se)
		case xml.CharData:
			if cursor.text != nil && cursor.hidden == 0 {
				cursor.text.addContent(string(se), cursor.currentStyle())
			}
		}
	}
	if err := cursor.resolveSize(); err != nil {
		return nil, nil, err
	}
	return doc, stream.rewrite(data, cursor.recolors, cursor.edits), nil
}

func (c *docCursor) readStartElement(se xml.StartElement) error {
	root := !c.rootSeen
	if root {
		if se.Name.Space != "" && se.Name.Space != svgNamespace {
			return &ParseError{Element: se.Name.Local, Err: fmt.Errorf("root element is in namespace %q", se.Name.Space)}
		}
		if se.Name.Local != "svg" {
			return &ParseError{Element: se.Name.Local, Err: errors.New("root element is not <svg>")}
		}
	}
	// Reads all recognized style attributes from the start element
	// and places it on top of the styleStack
	if err := c.pushStyle(se.Name.Local, se.Attr); err != nil {
		return err
	}
	if c.hidden > 0 {
		c.hidden++
		return nil
	}
	if se.Name.Space != "" && se.Name.Space != svgNamespace {
		// editor data (inkscape, sodipodi, rdf...)
		c.hidden++
		return nil
	}

	name := se.Name.Local
	if hiddenElements[name] {
		c.hidden++
		return nil
	}
	if !root && c.currentStyle().displayNone {
		c.hidden++
		c.cut = &streamEdit{start: c.tokenStart}
		return nil
	}
	if c.text != nil && name != "tspan" {
		return c.unsupported(name, true)
	}
	if df, ok := elementFuncs[name]; ok {
		if err := df(c, se.Attr); err != nil {
			return wrapParseError(name, err)
		}
		if root && c.currentStyle().displayNone {
			c.hidden++
			c.cut = &streamEdit{start: c.tokenEnd}
			c.cutContent = true
		}
		return nil
	}
	if !pathElements[name] { // path elements are handled by oksvg
		return c.unsupported(name, true)
	}
	return nil
}

func (c *docCursor) readEndElement(se xml.EndElement) {
	// pop style
	c.styleStack = c.styleStack[:len(c.styleStack)-1]
	if c.hidden > 0 {
		if c.hidden == 1 && c.cut != nil {
			c.cut.end = c.tokenEnd
			if c.cutContent {
				c.cut.end = c.tokenStart
			}
			c.edits = append(c.edits, *c.cut)
			c.cut = nil
		}
		c.hidden--
		return
	}
	if se.Name.Local == "text" && c.text != nil {
		c.endText()
	}
}

// unsupported records an element which won't be rendered.
// If `hide` is true, its content is skipped.
func (c *docCursor) unsupported(name string, hide bool) error {
	if hide {
		c.hidden++
	}
	c.doc.Unsupported = append(c.doc.Unsupported, name)
	return c.handleError(name, "unsupported element")
}

// wrapParseError returns nil for a nil err
func wrapParseError(element string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ParseError); ok {
		return err
	}
	return &ParseError{Element: element, Err: err}
}

func (c *docCursor) handleError(element, msg string) error {
	switch c.errorMode {
	case StrictErrorMode:
		return &ParseError{Element: element, Err: errors.New(msg)}
	case WarnErrorMode:
		c.logger.Warn(msg+", skipping", zap.String("element", element))
	}
	return nil
}

func (c *docCursor) readTransformAttr(m1 rasterx.Matrix2D, k string) (rasterx.Matrix2D, error) {
	ln := len(c.points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(c.points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(c.points[1], c.points[2]).
				Rotate(c.points[0]*math.Pi/180).
				Translate(-c.points[1], -c.points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(c.points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(c.points[0], c.points[0])
		} else if ln == 2 {
			m1 = m1.Scale(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(rasterx.Matrix2D{
				A: c.points[0],
				B: c.points[1],
				C: c.points[2],
				D: c.points[3],
				E: c.points[4],
				F: c.points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

func (c *docCursor) parseTransform(v string) (rasterx.Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := c.currentStyle().transform
	for _, t := range ts {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		err := c.getPoints(d[1])
		if err != nil {
			return m1, err
		}
		// transforms may be separated by commas
		k := strings.Trim(d[0], " \t\n\r,")
		m1, err = c.readTransformAttr(m1, strings.ToLower(k))
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

func (c *docCursor) readStyleAttr(curStyle *pathStyle, k, v string) error {
	switch k {
	case "fill":
		col, err := readPaint(curStyle, v)
		if err != nil {
			return err
		}
		curStyle.fill = col
	case "stroke":
		col, err := readPaint(curStyle, v)
		if err != nil {
			return err
		}
		curStyle.stroke = col
	case "color":
		col, err := readPaint(curStyle, v)
		if err != nil {
			return err
		}
		if col == nil {
			return fmt.Errorf("invalid color %q", v)
		}
		curStyle.color = col
	case "stroke-width":
		width, err := parseLength(v, curStyle.fontSize, 0)
		if err != nil {
			return err
		}
		curStyle.lineWidth = width
	case "opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.opacity *= op
	case "fill-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.fillOpacity = op
	case "stroke-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.lineOpacity = op
	case "font-family":
		curStyle.fontFamily = parseFontFamily(v)
	case "font-size":
		size, err := parseFontSize(v, curStyle.fontSize)
		if err != nil {
			return err
		}
		curStyle.fontSize = size
	case "font-weight":
		curStyle.fontWeight = parseFontWeight(v, curStyle.fontWeight)
	case "font-style":
		curStyle.italic = v == "italic" || v == "oblique"
	case "text-anchor":
		switch v {
		case "start":
			curStyle.anchor = AnchorStart
		case "middle":
			curStyle.anchor = AnchorMiddle
		case "end":
			curStyle.anchor = AnchorEnd
		}
	case "display":
		curStyle.displayNone = v == "none"
	case "visibility":
		switch v {
		case "hidden", "collapse":
			curStyle.visible = false
		case "visible":
			curStyle.visible = true
		}
	case "transform":
		m, err := c.parseTransform(v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	}
	return nil
}

// pushStyle parses the style element, and push it on the style stack.
// Note that this parses both the contents of a style attribute plus
// direct presentation attributes, the former taking precedence.
// Invalid values are ignored, as in CSS, unless in strict mode.
func (c *docCursor) pushStyle(element string, attrs []xml.Attr) error {
	var pairs []string
	var fromStyle []string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			fromStyle = append(fromStyle, strings.Split(attr.Value, ";")...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	pairs = append(pairs, fromStyle...)
	// Make a copy of the top style
	curStyle := *c.currentStyle()
	// display is not inherited
	curStyle.displayNone = false
	// currentColor refers to the color of the element itself
	sort.SliceStable(pairs, func(i, j int) bool {
		return isColorPair(pairs[i]) && !isColorPair(pairs[j])
	})
	for _, pair := range pairs {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			k := strings.ToLower(kv[0])
			k = strings.TrimSpace(k)
			v := strings.TrimSpace(kv[1])
			if v == "inherit" {
				continue
			}
			if err := c.readStyleAttr(&curStyle, k, v); err != nil && c.hidden == 0 {
				if err = c.handleError(element, fmt.Sprintf("invalid %s: %s", k, err)); err != nil {
					return err
				}
			}
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

func isColorPair(pair string) bool {
	k, _, _ := strings.Cut(pair, ":")
	return strings.EqualFold(strings.TrimSpace(k), "color")
}

// readPaint is parseSVGColor, with currentColor resolved
func readPaint(style *pathStyle, v string) (color.Color, error) {
	if strings.EqualFold(strings.TrimSpace(v), "currentcolor") {
		return style.color, nil
	}
	return parseSVGColor(v)
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}

// resolveSize computes the intrinsic size and the view box of the document.
func (c *docCursor) resolveSize() error {
	vb := c.viewBox
	if !c.hasViewBox || vb.W <= 0 || vb.H <= 0 {
		// an invalid view box is ignored
		c.hasViewBox = false
		vb = Bounds{W: 100, H: 100}
	}

	var err error
	c.doc.Width, err = parseLength(orDefault(c.width, "100%"), defaultStyle.fontSize, vb.W)
	if err != nil {
		return &ParseError{Element: "svg", Err: err}
	}
	c.doc.Height, err = parseLength(orDefault(c.height, "100%"), defaultStyle.fontSize, vb.H)
	if err != nil {
		return &ParseError{Element: "svg", Err: err}
	}

	if c.hasViewBox {
		c.doc.ViewBox = c.viewBox
	} else {
		c.doc.ViewBox = Bounds{W: c.doc.Width, H: c.doc.Height}
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
