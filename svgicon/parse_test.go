package svgicon

import (
	"bytes"
	"errors"
	"image/color"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-text/typesetting/fontscan"
	"github.com/google/go-cmp/cmp"
	"github.com/srwiley/rasterx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadIcon(t *testing.T, iconPath string, opts Options) *Document {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	doc, err := Load(iconPath, opts)
	require.NoError(t, err, iconPath)
	return doc
}

func TestSize(t *testing.T) {
	for _, test := range []struct {
		file          string
		width, height float64
		viewBox       Bounds
	}{
		{"opaque.svg", 10, 10, Bounds{W: 10, H: 10}},
		{"empty.svg", 16, 8, Bounds{W: 16, H: 8}},
		{"zero.svg", 0, 10, Bounds{W: 0, H: 10}},
		{"half.svg", 10, 20, Bounds{W: 10, H: 20}},
		{"units.svg", 96, 20, Bounds{W: 48, H: 40}},
	} {
		doc := loadIcon(t, filepath.Join("testdata", test.file), Options{})
		assert.Equal(t, test.width, doc.Width, test.file)
		assert.Equal(t, test.height, doc.Height, test.file)
		assert.Equal(t, test.viewBox, doc.ViewBox, test.file)
		assert.Equal(t, test.viewBox.W, doc.Icon.ViewBox.W, test.file)
	}
}

func TestPaths(t *testing.T) {
	doc := loadIcon(t, "testdata/half.svg", Options{})
	assert.Len(t, doc.Icon.SVGPaths, 2)
	assert.Empty(t, doc.Texts)
	assert.Empty(t, doc.Images)
	assert.Empty(t, doc.Unsupported)
	assert.Nil(t, doc.Fonts) // no text
}

func TestBaseDir(t *testing.T) {
	doc := loadIcon(t, "testdata/opaque.svg", Options{})
	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	abs, err = filepath.EvalSymlinks(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, doc.BaseDir)

	doc, err = LoadStream(strings.NewReader(`<svg width="4" height="4"/>`), Options{})
	require.NoError(t, err)
	assert.Equal(t, "", doc.BaseDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("testdata/missing.svg", Options{})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "testdata/missing.svg", ioErr.Path)

	for _, file := range []string{"malformed.svg", "notsvg.xml"} {
		_, err = Load(filepath.Join("testdata", file), Options{})
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, file)
	}

	var parseErr *ParseError
	_, err = Parse([]byte(`<svg xmlns="http://example.com/other"><rect/></svg>`), "", Options{})
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "svg", parseErr.Element)
	assert.Contains(t, err.Error(), "namespace")

	_, err = Parse(nil, "", Options{})
	assert.ErrorIs(t, err, errNoElement)
	_, err = Parse([]byte("<!-- only a comment -->"), "", Options{})
	assert.ErrorIs(t, err, errNoElement)
}

func TestUnsupported(t *testing.T) {
	doc := loadIcon(t, "testdata/unsupported.svg", Options{})
	assert.Equal(t, []string{"foreignObject", "svg"}, doc.Unsupported)
	assert.Equal(t, 10., doc.Width)

	_, err := Load("testdata/unsupported.svg", Options{ErrorMode: StrictErrorMode})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "foreignObject", parseErr.Element)
}

func TestInvalidStyle(t *testing.T) {
	const input = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">
		<text y="5" font-size="big">a</text>
	</svg>`
	doc, err := Parse([]byte(input), "", Options{Fonts: fontscan.NewFontMap(nil)})
	require.NoError(t, err)
	require.Len(t, doc.Texts, 1)
	assert.Equal(t, defaultStyle.fontSize, doc.Texts[0].Runs[0].Font.Size)

	_, err = Parse([]byte(input), "", Options{ErrorMode: StrictErrorMode})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "text", parseErr.Element)
}

func TestText(t *testing.T) {
	fonts := fontscan.NewFontMap(nil)
	doc := loadIcon(t, "testdata/text.svg", Options{Fonts: fonts})
	assert.Same(t, fonts, doc.Fonts)
	assert.Empty(t, doc.Unsupported) // editor namespace is skipped
	require.Len(t, doc.Texts, 1)     // the second one is empty

	blue := Paint{Color: color.RGBA{B: 0xff, A: 0xff}, Opacity: 0.5}
	noStroke := Paint{Opacity: 0.5}
	tr := rasterx.Identity.Translate(5, 0)
	expected := []TextRun{
		{
			Content: "Hello, ", X: 10, Y: 30, AbsX: true, AbsY: true,
			Font: FontRequest{Families: []string{"Go"}, Size: 20, Weight: 400},
			Fill: blue, Stroke: noStroke, LineWidth: 1, Transform: tr,
		},
		{
			Content: "world", DX: 2,
			Font: FontRequest{Families: []string{"Go"}, Size: 20, Weight: 700},
			Fill: blue, Stroke: noStroke, LineWidth: 1, Transform: tr,
		},
	}
	if diff := cmp.Diff(expected, doc.Texts[0].Runs); diff != "" {
		t.Errorf("unexpected runs (-want +got):\n%s", diff)
	}
}

func TestTextCharset(t *testing.T) {
	input := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\"><text>caf\xe9</text></svg>")
	doc, err := LoadStream(bytes.NewReader(input), Options{Fonts: fontscan.NewFontMap(nil)})
	require.NoError(t, err)
	require.Len(t, doc.Texts, 1)
	assert.Equal(t, "café", doc.Texts[0].Runs[0].Content)
	assert.False(t, doc.Texts[0].Runs[0].AbsX)
}

func TestImages(t *testing.T) {
	doc := loadIcon(t, "testdata/image.svg", Options{})
	assert.Equal(t, []string{"image"}, doc.Unsupported) // remote reference
	require.Len(t, doc.Images, 2)

	local := doc.Images[0]
	assert.Equal(t, filepath.Join(doc.BaseDir, "pixel.png"), local.Path)
	assert.Equal(t, [4]float64{2, 4, 8, 8}, [4]float64{local.X, local.Y, local.Width, local.Height})
	assert.False(t, local.Stretch)
	assert.Equal(t, 1., local.Opacity)
	assert.Equal(t, rasterx.Identity, local.Transform)

	embedded := doc.Images[1]
	assert.Equal(t, "", embedded.Path)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), embedded.Data)
	assert.True(t, embedded.Stretch)

	_, err := Load("testdata/image.svg", Options{ErrorMode: StrictErrorMode})
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	for _, test := range []struct {
		uri      string
		expected string
	}{
		{"data:,a%20b", "a b"},
		{"data:text/plain;base64,aGVs bG8=", "hello"},
		{"data:text/plain;base64,aGVsbG8", "hello"},
	} {
		got, err := decodeDataURI(test.uri)
		require.NoError(t, err, test.uri)
		assert.Equal(t, test.expected, string(got))
	}

	_, err := decodeDataURI("data:image/png;base64")
	assert.Error(t, err)
	_, err = decodeDataURI("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestHref(t *testing.T) {
	c := &docCursor{doc: &Document{BaseDir: filepath.FromSlash("/base")}}
	for _, test := range []struct {
		href, path string
	}{
		{"img.png", filepath.FromSlash("/base/img.png")},
		{"sub/my%20img.png", filepath.FromSlash("/base/sub/my img.png")},
		{"../img.png", filepath.FromSlash("/img.png")},
		{"/abs/img.png", filepath.FromSlash("/abs/img.png")},
		{"file:///abs/img.png", filepath.FromSlash("/abs/img.png")},
	} {
		img := ImageRef{Href: test.href}
		require.NoError(t, c.resolveHref(&img))
		assert.Equal(t, test.path, img.Path, test.href)
	}

	img := ImageRef{Href: "http://example.com/a.png"}
	assert.Equal(t, errRemoteHref, c.resolveHref(&img))
}

func TestTransform(t *testing.T) {
	c := &docCursor{styleStack: []pathStyle{defaultStyle}}
	for _, test := range []struct {
		attr     string
		expected rasterx.Matrix2D
	}{
		{"translate(3)", rasterx.Identity.Translate(3, 0)},
		{"scale(2)", rasterx.Identity.Scale(2, 2)},
		{"translate(1 2), scale(2 3)", rasterx.Identity.Translate(1, 2).Scale(2, 3)},
		{"matrix(1 0 0 1 4 5)", rasterx.Matrix2D{A: 1, D: 1, E: 4, F: 5}},
	} {
		m, err := c.parseTransform(test.attr)
		require.NoError(t, err, test.attr)
		assert.Equal(t, test.expected, m, test.attr)
	}

	for _, attr := range []string{"rotate(1 2)", "translate 1)", "unknown(2)", "scale(a)"} {
		_, err := c.parseTransform(attr)
		assert.Error(t, err, attr)
	}
}

func TestLength(t *testing.T) {
	for _, test := range []struct {
		value    string
		expected float64
	}{
		{"12", 12},
		{" 12px ", 12},
		{"1in", 96},
		{"3pt", 4},
		{"2.54cm", 96},
		{"1.5em", 15},
		{"2ex", 10},
		{"50%", 40},
		{"1e1", 10},
	} {
		got, err := parseLength(test.value, 10, 80)
		require.NoError(t, err, test.value)
		assert.InDelta(t, test.expected, got, 1e-9, test.value)
	}

	for _, value := range []string{"", "px", "12km", "abc"} {
		_, err := parseLength(value, 10, 80)
		assert.Error(t, err, value)
	}
}

func TestColor(t *testing.T) {
	for _, test := range []struct {
		value    string
		expected color.Color
	}{
		{"none", nil},
		{"#f00", color.NRGBA{R: 0xff, A: 0xff}},
		{"#00ff0080", color.NRGBA{G: 0xff, A: 0x80}},
		{"rgb(0, 0, 255)", color.NRGBA{B: 0xff, A: 0xff}},
		{"rgba(100%, 0%, 0%, 0.5)", color.NRGBA{R: 0xff, A: 0x80}},
		{"Red", color.RGBA{R: 0xff, A: 0xff}},
		{"url(#grad) #fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"url(#grad)", color.Black},
		{"currentColor", color.Black},
	} {
		got, err := parseSVGColor(test.value)
		require.NoError(t, err, test.value)
		assert.Equal(t, test.expected, got, test.value)
	}

	for _, value := range []string{"#12", "rgb(1, 2)", "nocolor", "url(#a"} {
		_, err := parseSVGColor(value)
		assert.Error(t, err, value)
	}
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, " a b ", collapseSpaces("\n  a \t\r\n b  "))
	assert.Equal(t, "ab", collapseSpaces("ab"))
}

func TestSystemFonts(t *testing.T) {
	// fonts are only looked up for documents with text
	doc := loadIcon(t, "testdata/opaque.svg", Options{})
	assert.Nil(t, doc.Fonts)

	// a system without fonts is not an error
	doc = loadIcon(t, "testdata/text.svg", Options{})
	assert.Len(t, doc.Texts, 1)
}

func TestHiddenContent(t *testing.T) {
	const pixel = "data:image/png;base64,iVBORw0KGgo="
	for _, content := range []string{
		`<defs><text y="5">a</text><image href="` + pixel + `" width="4" height="4"/></defs>`,
		`<linearGradient id="g"><text y="5">a</text></linearGradient>`,
		`<text y="5" display="none">a</text><image href="` + pixel + `" style="display:none"/>`,
		`<g display="none"><text y="5">a</text><image href="` + pixel + `"/></g>`,
		`<image href="` + pixel + `" visibility="hidden"/>`,
		`<image href="` + pixel + `" width="0"/><image href="` + pixel + `" height="0"/>`,
	} {
		input := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` + content + `</svg>`
		doc, err := Parse([]byte(input), "", Options{Fonts: fontscan.NewFontMap(nil), ErrorMode: StrictErrorMode})
		require.NoError(t, err, content)
		assert.Empty(t, doc.Texts, content)
		assert.Empty(t, doc.Images, content)
		assert.Empty(t, doc.Unsupported, content)
	}

	// display is not inherited, but hides the whole subtree
	doc, err := Parse([]byte(`<svg width="10" height="10"><g display="none"><g display="inline"><text>a</text></g></g></svg>`), "", Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.Texts)
}

func TestVisibility(t *testing.T) {
	const input = `<svg width="10" height="10" visibility="hidden">
		<text y="5">a<tspan visibility="visible">b</tspan></text>
		<image href="data:,x" width="2" height="2" visibility="visible"/>
	</svg>`
	doc, err := Parse([]byte(input), "", Options{Fonts: fontscan.NewFontMap(nil)})
	require.NoError(t, err)
	require.Len(t, doc.Texts, 1)
	runs := doc.Texts[0].Runs
	require.Len(t, runs, 2)
	assert.Nil(t, runs[0].Fill.Color) // still positioned
	assert.Equal(t, color.Black, runs[1].Fill.Color)
	assert.Len(t, doc.Images, 1)
}

func TestImageSize(t *testing.T) {
	const input = `<svg width="10" height="10">
		<image href="data:,x" width="4"/>
		<image href="data:,x" width="auto" height="2"/>
	</svg>`
	doc, err := Parse([]byte(input), "", Options{})
	require.NoError(t, err)
	require.Len(t, doc.Images, 2)
	assert.True(t, doc.Images[0].HasWidth)
	assert.False(t, doc.Images[0].HasHeight)
	assert.False(t, doc.Images[1].HasWidth)
	assert.True(t, doc.Images[1].HasHeight)
}

func TestRecolorTag(t *testing.T) {
	for _, test := range []struct {
		tag, expected string
	}{
		{`<path stroke="currentColor" fill="none"/>`, `<path stroke="#ff0000" fill="none"/>`},
		{`<path fill='transparent'/>`, `<path fill='none'/>`},
		{`<path style="fill: CurrentColor;stroke:transparent"/>`, `<path style="fill: #ff0000;stroke:none"/>`},
		{`<stop stop-color="currentColor"/>`, `<stop stop-color="#ff0000"/>`},
		{`<path id="transparent" data-fill="currentColor"/>`, `<path id="transparent" data-fill="currentColor"/>`},
	} {
		assert.Equal(t, test.expected, string(recolorTag([]byte(test.tag), "#ff0000")), test.tag)
	}
}

func TestApplyEdits(t *testing.T) {
	src := []byte("0123456789")
	out := applyEdits(src, []streamEdit{
		{start: 6, end: 8, text: []byte("x")},
		{start: 1, end: 3},
		{start: 5, end: 9, text: []byte("y")},
	})
	assert.Equal(t, "034y9", string(out))
	assert.Equal(t, "0123456789", string(src))
}

func TestUnsupportedColors(t *testing.T) {
	for _, content := range []string{
		`<path d="M0 0h10v10H0z" stroke="currentColor" fill="none"/>`,
		`<path d="M0 0h10v10H0z" fill="transparent"/>`,
		`<g color="red" style="stroke:currentColor"><path d="M0 0h10v10H0z"/></g>`,
	} {
		input := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` + content + `</svg>`
		doc, err := Parse([]byte(input), "", Options{})
		require.NoError(t, err, content)
		assert.Len(t, doc.Icon.SVGPaths, 1, content)
	}

	// offsets refer to the converted content
	input := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\"><text>caf\xe9</text>" +
		"<path d=\"M0 0h10v10H0z\" fill=\"currentColor\"/></svg>")
	doc, err := Parse(input, "", Options{Fonts: fontscan.NewFontMap(nil)})
	require.NoError(t, err)
	assert.Len(t, doc.Icon.SVGPaths, 1)
	assert.Equal(t, "café", doc.Texts[0].Runs[0].Content)
}

func TestCurrentColor(t *testing.T) {
	const input = `<svg width="10" height="10" color="blue">
		<text fill="currentColor" color="red">a</text>
		<text stroke="currentColor">b</text>
	</svg>`
	doc, err := Parse([]byte(input), "", Options{Fonts: fontscan.NewFontMap(nil)})
	require.NoError(t, err)
	require.Len(t, doc.Texts, 2)
	red := color.RGBA{R: 0xff, A: 0xff}
	blue := color.RGBA{B: 0xff, A: 0xff}
	assert.Equal(t, red, doc.Texts[0].Runs[0].Fill.Color)
	assert.Equal(t, blue, doc.Texts[1].Runs[0].Stroke.Color)
}

func TestDisplayNonePaths(t *testing.T) {
	const input = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">
		<rect width="2" height="2" display="none" fill="currentColor"/>
		<g style="display: none"><rect width="2" height="2"/><rect width="2" height="2"/></g>
		<rect width="2" height="2"/>
	</svg>`
	doc, err := Parse([]byte(input), "", Options{})
	require.NoError(t, err)
	assert.Len(t, doc.Icon.SVGPaths, 1)

	doc, err = Parse([]byte(`<svg width="10" height="10" display="none"><rect width="2" height="2"/></svg>`), "", Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.Icon.SVGPaths)
	assert.Equal(t, 10., doc.Width)
}
