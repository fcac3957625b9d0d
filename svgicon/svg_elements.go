package svgicon

import (
	"encoding/xml"
	"strings"
)

type svgFunc func(c *docCursor, attrs []xml.Attr) error

// elementFuncs handles the elements not drawn by oksvg,
// plus the root element
var elementFuncs = map[string]svgFunc{
	"svg":   svgF,
	"text":  textF,
	"tspan": tspanF,
	"image": imageF,
}

// pathElements are drawn by oksvg
var pathElements = map[string]bool{
	"g":              true,
	"line":           true,
	"stop":           true,
	"rect":           true,
	"circle":         true,
	"ellipse":        true,
	"polyline":       true,
	"polygon":        true,
	"path":           true,
	"use":            true,
	"style":          true, // class definitions
}

// hiddenElements are never rendered, nor their content.
// Definitions are drawn by oksvg when referenced.
var hiddenElements = map[string]bool{
	"title":          true,
	"desc":           true,
	"metadata":       true,
	"defs":           true,
	"linearGradient": true,
	"radialGradient": true,
}

func svgF(c *docCursor, attrs []xml.Attr) error {
	if c.rootSeen {
		// nested viewports are not supported by oksvg
		return c.unsupported("svg", true)
	}
	c.rootSeen = true
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			if err := c.getPoints(attr.Value); err != nil {
				return err
			}
			if len(c.points) != 4 {
				return errParamMismatch
			}
			c.viewBox = Bounds{X: c.points[0], Y: c.points[1], W: c.points[2], H: c.points[3]}
			c.hasViewBox = true
		case "width":
			c.width = attr.Value
		case "height":
			c.height = attr.Value
		case "preserveAspectRatio":
			c.doc.Stretch = strings.TrimSpace(attr.Value) == "none"
		}
	}
	return nil
}

func textF(c *docCursor, attrs []xml.Attr) error {
	c.text = new(textBuilder)
	return c.text.startRun(c, attrs)
}

func tspanF(c *docCursor, attrs []xml.Attr) error {
	if c.text == nil { // not in a text
		c.hidden++
		return nil
	}
	return c.text.startRun(c, attrs)
}

func (c *docCursor) endText() {
	if text := c.text.build(); len(text.Runs) != 0 {
		c.doc.Texts = append(c.doc.Texts, text)
	}
	c.text = nil
}

func imageF(c *docCursor, attrs []xml.Attr) error {
	style := c.currentStyle()
	img := ImageRef{Opacity: style.opacity, Transform: style.transform}
	var err error
	for _, attr := range attrs {
		if strings.TrimSpace(attr.Value) == "auto" {
			continue
		}
		switch attr.Name.Local {
		case "href": // also matches xlink:href
			img.Href = strings.TrimSpace(attr.Value)
		case "x":
			img.X, err = parseLength(attr.Value, style.fontSize, c.viewBoxWidth())
		case "y":
			img.Y, err = parseLength(attr.Value, style.fontSize, c.viewBoxHeight())
		case "width":
			img.Width, err = parseLength(attr.Value, style.fontSize, c.viewBoxWidth())
			img.HasWidth = true
		case "height":
			img.Height, err = parseLength(attr.Value, style.fontSize, c.viewBoxHeight())
			img.HasHeight = true
		case "preserveAspectRatio":
			img.Stretch = strings.TrimSpace(attr.Value) == "none"
		}
		if err != nil {
			return err
		}
	}
	if img.Href == "" || !style.visible {
		return nil // not drawn, but not an error
	}
	if (img.HasWidth && img.Width <= 0) || (img.HasHeight && img.Height <= 0) {
		return nil
	}
	if err := c.resolveHref(&img); err != nil {
		if err == errRemoteHref {
			c.doc.Unsupported = append(c.doc.Unsupported, "image")
			return c.handleError("image", "remote image reference "+img.Href)
		}
		return err
	}
	c.doc.Images = append(c.doc.Images, img)
	return nil
}

// viewBoxWidth returns the reference for horizontal percentages.
// The root element has already been read.
func (c *docCursor) viewBoxWidth() float64 {
	if c.hasViewBox {
		return c.viewBox.W
	}
	w, _ := parseLength(orDefault(c.width, "100"), defaultStyle.fontSize, 100)
	return w
}

func (c *docCursor) viewBoxHeight() float64 {
	if c.hasViewBox {
		return c.viewBox.H
	}
	h, _ := parseLength(orDefault(c.height, "100"), defaultStyle.fontSize, 100)
	return h
}
