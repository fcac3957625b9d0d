// Provides loading of SVG documents.
// The drawable shapes are parsed by github.com/srwiley/oksvg
// into an abstract representation, which can then be consumed
// by painting drivers (see svgopacity/svgraster).
// This package completes it with the document intrinsic size,
// and the text and raster image elements oksvg skips.
package svgicon

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/go-text/typesetting/fontscan"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
)

// Bounds defines a bounding box, such as a viewport.
type Bounds struct{ X, Y, W, H float64 }

// ErrorMode determines how an element
// which can't be rendered is handled.
type ErrorMode uint8

const (
	// WarnErrorMode logs the element and goes on
	WarnErrorMode ErrorMode = iota
	// IgnoreErrorMode silently skips the element
	IgnoreErrorMode
	// StrictErrorMode fails with a *ParseError
	StrictErrorMode
)

// Options controls how a document is loaded.
type Options struct {
	ErrorMode ErrorMode

	// Fonts is the collection used to render text.
	// If nil, the system fonts are enumerated when
	// the document contains text.
	Fonts *fontscan.FontMap

	// Logger receives warnings about skipped content.
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Document holds data from a parsed SVG file.
type Document struct {
	// Icon stores the paths and shapes of the document.
	Icon *oksvg.SvgIcon

	// Width and Height are the intrinsic size of the document,
	// in pixels.
	Width, Height float64

	// ViewBox is the user space rectangle mapped
	// onto (0, 0, Width, Height).
	ViewBox Bounds
	// Stretch is true for preserveAspectRatio="none" on the root;
	// otherwise the view box is fitted and centered.
	Stretch bool

	// BaseDir is the directory relative references
	// are resolved against. It is empty for documents read
	// from a stream.
	BaseDir string

	Texts  []Text
	Images []ImageRef

	// Fonts is nil if the document has no text,
	// or if no font could be found.
	Fonts *fontscan.FontMap

	// Unsupported lists the elements which
	// will not be rendered, in document order.
	Unsupported []string
}

// Anchor is the horizontal alignment of a text chunk
// relative to its starting point.
type Anchor uint8

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// FontRequest describes the font a text run asks for.
type FontRequest struct {
	Families []string // in preference order, may contain generic names like "serif"
	Size     float64  // in user units
	Weight   float32  // 100 to 900, 400 is normal
	Italic   bool
}

// Paint is a solid color with its opacity. A nil
// Color disables the painting.
type Paint struct {
	Color   color.Color
	Opacity float64
}

// TextRun is a piece of text sharing the same style.
type TextRun struct {
	Content string

	// X and Y are meaningful only when AbsX and AbsY are true;
	// otherwise the run starts where the previous one ended.
	// An absolute X starts a new chunk, aligned with Anchor.
	X, Y       float64
	AbsX, AbsY bool
	DX, DY     float64

	Anchor    Anchor
	Font      FontRequest
	Fill      Paint
	Stroke    Paint
	LineWidth float64

	Transform rasterx.Matrix2D // user space transform
}

// Text is a <text> element.
type Text struct {
	Runs []TextRun
}

// ImageRef is an <image> element.
type ImageRef struct {
	Href string // as written in the document

	// Path is the resolved file location. It is empty
	// for embedded images, whose content is in Data.
	Path string
	Data []byte

	// X, Y, Width, Height is the target rectangle. When Width or Height
	// is not given, it is derived from the intrinsic size of the image.
	X, Y, Width, Height float64
	HasWidth, HasHeight bool

	// Stretch is true for preserveAspectRatio="none"; otherwise the image
	// is fitted and centered in the target rectangle.
	Stretch bool

	Opacity   float64
	Transform rasterx.Matrix2D
}

// Load reads the SVG file at `path`.
// Relative references in the document are resolved
// against the canonical directory of the file.
// It returns an *IOError if the file can't be read, and a *ParseError
// if its content is invalid.
func Load(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return Parse(data, baseDir(path), opts)
}

// LoadStream reads an SVG document from `r`.
// Relative references are resolved against the
// current working directory.
func LoadStream(r io.Reader, opts Options) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return Parse(data, "", opts)
}

// baseDir returns the canonical parent directory of `path`,
// falling back on its lexical parent.
func baseDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	if canonical, err := filepath.EvalSymlinks(abs); err == nil {
		abs = canonical
	}
	return filepath.Dir(abs)
}

// Parse reads an SVG document from its content.
// See Load for the error values.
func Parse(data []byte, baseDir string, opts Options) (*Document, error) {
	logger := opts.logger()

	doc, content, err := scanDocument(data, baseDir, opts.ErrorMode, logger)
	if err != nil {
		return nil, err
	}

	// unsupported elements have already been reported by the scan
	icon, err := oksvg.ReadIconStream(bytes.NewReader(content), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	icon.ViewBox.X, icon.ViewBox.Y = doc.ViewBox.X, doc.ViewBox.Y
	icon.ViewBox.W, icon.ViewBox.H = doc.ViewBox.W, doc.ViewBox.H
	doc.Icon = icon

	if len(doc.Texts) != 0 {
		doc.Fonts = opts.Fonts
		if doc.Fonts == nil {
			doc.Fonts = loadSystemFonts(logger)
		}
	}

	logger.Debug("document loaded",
		zap.Float64("width", doc.Width), zap.Float64("height", doc.Height),
		zap.Int("paths", len(icon.SVGPaths)), zap.Int("texts", len(doc.Texts)),
		zap.Int("images", len(doc.Images)))
	return doc, nil
}
