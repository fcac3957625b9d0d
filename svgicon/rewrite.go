package svgicon

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"
	"regexp"
	"sort"
	"strings"
)

// streamEdit replaces the bytes [start, end) of the decoded stream
type streamEdit struct {
	start, end int64
	text       []byte
}

// recolor is a start tag using currentColor or transparent,
// which oksvg does not support.
type recolor struct {
	start, end int64
	current    string // value of the color property
}

// decodedStream describes the content token offsets refer to.
type decodedStream struct {
	label     string        // declared encoding, if converted
	prefix    []byte        // read before the conversion
	converted *bytes.Buffer // nil when no conversion happened
}

var (
	currentColorValue = regexp.MustCompile(`((?:^|[\s;"'])(?:fill|stroke|stop-color)\s*(?:=\s*["']\s*|:\s*))(?i:currentcolor)\b`)
	transparentValue  = regexp.MustCompile(`((?:^|[\s;"'])(?:fill|stroke)\s*(?:=\s*["']\s*|:\s*))(?i:transparent)\b`)
)

// paintAttrs may hold currentColor
var paintAttrs = map[string]bool{
	"fill":       true,
	"stroke":     true,
	"stop-color": true,
	"style":      true,
}

func needsRecolor(attrs []xml.Attr) bool {
	for _, attr := range attrs {
		if !paintAttrs[attr.Name.Local] {
			continue
		}
		v := strings.ToLower(attr.Value)
		if strings.Contains(v, "currentcolor") || strings.Contains(v, "transparent") {
			return true
		}
	}
	return false
}

// colorValue formats `c` as a #rrggbb color.
func colorValue(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// recolorTag resolves currentColor and transparent in a start tag.
func recolorTag(tag []byte, current string) []byte {
	tag = currentColorValue.ReplaceAll(tag, []byte("${1}"+current))
	return transparentValue.ReplaceAll(tag, []byte("${1}none"))
}

// rewrite applies the edits to the decoded stream. It returns `data`
// unchanged if there is nothing to edit.
func (ds decodedStream) rewrite(data []byte, recolors []recolor, edits []streamEdit) []byte {
	if len(recolors) == 0 && len(edits) == 0 {
		return data
	}
	src := data
	if ds.converted != nil {
		src = append(append([]byte(nil), ds.prefix...), ds.converted.Bytes()...)
		// the content is now UTF-8
		if i := bytes.LastIndex(ds.prefix, []byte(ds.label)); i != -1 {
			edits = append(edits, streamEdit{start: int64(i), end: int64(i + len(ds.label)), text: []byte("UTF-8")})
		}
	}
	for _, rc := range recolors {
		tag := src[rc.start:rc.end]
		if out := recolorTag(tag, rc.current); !bytes.Equal(out, tag) {
			edits = append(edits, streamEdit{start: rc.start, end: rc.end, text: out})
		}
	}
	return applyEdits(src, edits)
}

// applyEdits replaces the ranges of `src`. An edit overlapping
// a previous one is dropped, so that removing a subtree wins over
// editing its content.
func applyEdits(src []byte, edits []streamEdit) []byte {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end > edits[j].end
	})
	var out bytes.Buffer
	out.Grow(len(src))
	var pos int64
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		out.Write(src[pos:e.start])
		out.Write(e.text)
		pos = e.end
	}
	out.Write(src[pos:])
	return out.Bytes()
}
