package coverage

import (
	"fmt"
	"io"
	"strconv"
)

// Rounding selects how a percentage which is not an
// integer is reduced to one.
type Rounding uint8

const (
	HalfEven Rounding = iota // ties go to the even neighbour: 12.5 -> 12, 13.5 -> 14
	HalfUp                   // ties go up: 12.5 -> 13
	Down                     // fractional part is dropped: 12.9 -> 12
)

func (r Rounding) String() string {
	switch r {
	case HalfEven:
		return "even"
	case HalfUp:
		return "half-up"
	case Down:
		return "down"
	default:
		return "<unknown Rounding>"
	}
}

// ParseRounding is the inverse of Rounding.String
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "even", "":
		return HalfEven, nil
	case "half-up":
		return HalfUp, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid rounding mode %q (expected even, half-up or down)", s)
	}
}

// Report describes the result line of a measure.
type Report struct {
	Count         int // number of opaque pixels
	Width, Height int // size of the pixel grid

	Percentage bool // report Count as a percentage of the denominator
	Square     bool // use the bounding square as denominator; ignored without Percentage
	Rounding   Rounding
}

// Denominator returns the area the count is compared to:
// the canvas area, or the area of the square whose side is
// the largest dimension of the canvas.
func (r Report) Denominator() int {
	if r.Square {
		side := r.Width
		if r.Height > side {
			side = r.Height
		}
		return side * side
	}
	return r.Width * r.Height
}

// Percent returns 100 * Count / Denominator, rounded according to
// r.Rounding. The computation is exact, so that ties are detected
// without floating point error.
// A zero denominator yields 0.
func (r Report) Percent() int {
	den := uint64(r.Denominator())
	if den == 0 {
		return 0
	}
	num := 100 * uint64(r.Count)
	q, rem := num/den, num%den
	switch r.Rounding {
	case HalfUp:
		if 2*rem >= den {
			q++
		}
	case HalfEven:
		if 2*rem > den || (2*rem == den && q%2 == 1) {
			q++
		}
	}
	return int(q)
}

// String returns the report line, without trailing newline.
func (r Report) String() string {
	if !r.Percentage {
		return strconv.Itoa(r.Count)
	}
	return strconv.Itoa(r.Percent()) + "%"
}

// WriteTo writes the report line followed by a newline.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String()+"\n")
	return int64(n), err
}
