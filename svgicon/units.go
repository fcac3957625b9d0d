package svgicon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pixels per unit, for absolute units
var unitToPixels = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 4. / 3.,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseLength converts a length with unit to pixels.
// Relative units are resolved with `fontSize` (em, ex) and
// `ref` (percentages).
func parseLength(v string, fontSize, ref float64) (float64, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		f, err := parseFloat(strings.TrimSuffix(v, "%"))
		return f * ref / 100, err
	}
	n := numberPrefix(v)
	if n == 0 {
		return 0, fmt.Errorf("invalid length %q", v)
	}
	f, err := strconv.ParseFloat(v[:n], 64)
	if err != nil {
		return 0, err
	}
	switch unit := strings.TrimSpace(v[n:]); unit {
	case "em":
		return f * fontSize, nil
	case "ex":
		return f * fontSize / 2, nil
	default:
		factor, ok := unitToPixels[unit]
		if !ok {
			return 0, fmt.Errorf("invalid length unit in %q", v)
		}
		return f * factor, nil
	}
}

// readFraction reads a number or a percentage,
// clamped to [0, 1]
func readFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = parseFloat(v)
	f /= d
	return math.Max(0, math.Min(1, f)), err
}

// getPoints reads a list of numbers, separated by spaces, commas,
// or only by a sign or a decimal point (as in "1-2" or "0.5.5").
func (c *docCursor) getPoints(dataPoints string) error {
	c.points = c.points[:0]
	s := dataPoints
	for {
		s = strings.TrimLeft(s, " ,\t\n\r")
		if s == "" {
			return nil
		}
		n := numberPrefix(s)
		if n == 0 {
			return fmt.Errorf("invalid number list %q", dataPoints)
		}
		f, err := strconv.ParseFloat(s[:n], 64)
		if err != nil {
			return err
		}
		c.points = append(c.points, f)
		s = s[n:]
	}
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// numberPrefix returns the length of the number starting `s`,
// or 0 if `s` does not start with a number.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := false
	for i < len(s) && isDigit(s[i]) {
		i++
		digits = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits = true
		}
	}
	if !digits {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j { // "1em" is not an exponent
			i = k
		}
	}
	return i
}

// font sizes keywords, with medium as the default size
var fontSizes = map[string]float64{
	"xx-small": 12 / 1.2 / 1.2 / 1.2,
	"x-small":  12 / 1.2 / 1.2,
	"small":    12 / 1.2,
	"medium":   12,
	"large":    12 * 1.2,
	"x-large":  12 * 1.2 * 1.2,
	"xx-large": 12 * 1.2 * 1.2 * 1.2,
}

// parseFontSize resolves a font-size value relative to the parent size.
func parseFontSize(v string, parent float64) (float64, error) {
	if size, ok := fontSizes[v]; ok {
		return size, nil
	}
	switch v {
	case "larger":
		return parent * 1.2, nil
	case "smaller":
		return parent / 1.2, nil
	}
	return parseLength(v, parent, parent)
}

func parseFontWeight(v string, parent float32) float32 {
	switch v {
	case "normal":
		return 400
	case "bold":
		return 700
	case "bolder":
		return float32(math.Min(900, float64(parent)+300))
	case "lighter":
		return float32(math.Max(100, float64(parent)-300))
	}
	w, err := parseFloat(v)
	if err != nil || w < 1 || w > 1000 {
		return parent
	}
	return float32(w)
}

// parseFontFamily splits a font-family list, removing quotes.
func parseFontFamily(v string) []string {
	var out []string
	for _, family := range strings.Split(v, ",") {
		family = strings.Trim(strings.TrimSpace(family), `"'`)
		if family != "" {
			out = append(out, family)
		}
	}
	return out
}
