package svgicon

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// parseSVGColor reads a paint value. It returns nil for "none".
// Paint servers (gradients and patterns) are only supported by
// oksvg: for text and images their fallback color, or black, is used.
func parseSVGColor(v string) (color.Color, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "url(") {
		end := strings.IndexByte(v, ')')
		if end == -1 {
			return nil, fmt.Errorf("invalid paint %q", v)
		}
		if fallback := strings.TrimSpace(v[end+1:]); fallback != "" {
			return parseSVGColor(fallback)
		}
		return color.Black, nil
	}

	lower := strings.ToLower(v)
	switch lower {
	case "none", "":
		return nil, nil
	case "transparent":
		return color.Transparent, nil
	case "currentcolor":
		return color.Black, nil
	}

	if strings.HasPrefix(lower, "#") {
		return parseHexColor(lower[1:])
	}
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		return parseRGBColor(lower)
	}
	if c, ok := colornames.Map[lower]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("invalid color %q", v)
}

func parseHexColor(hex string) (color.Color, error) {
	switch len(hex) {
	case 3, 4: // #rgb, #rgba
		expanded := make([]byte, 0, 2*len(hex))
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	case 6, 8:
	default:
		return nil, fmt.Errorf("invalid hex color #%s", hex)
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color #%s", hex)
	}
	if len(hex) == 6 {
		u = u<<8 | 0xff
	}
	return color.NRGBA{R: uint8(u >> 24), G: uint8(u >> 16), B: uint8(u >> 8), A: uint8(u)}, nil
}

// parseRGBColor reads rgb(r, g, b) and rgba(r, g, b, a),
// with components as numbers or percentages
func parseRGBColor(v string) (color.Color, error) {
	start, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < start {
		return nil, fmt.Errorf("invalid color %q", v)
	}
	args := splitOnCommaOrSpace(v[start+1 : end])
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("invalid color %q", v)
	}
	var comps [4]uint8
	comps[3] = 0xff
	for i, arg := range args {
		var (
			f   float64
			err error
		)
		if i == 3 {
			f, err = readFraction(arg)
			f *= 255
		} else if strings.HasSuffix(arg, "%") {
			f, err = parseFloat(strings.TrimSuffix(arg, "%"))
			f = f * 255 / 100
		} else {
			f, err = parseFloat(arg)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid color %q", v)
		}
		if f < 0 {
			f = 0
		} else if f > 255 {
			f = 255
		}
		comps[i] = uint8(f + 0.5)
	}
	return color.NRGBA{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, nil
}
