// Command svgopacity rasterizes an SVG document at its intrinsic
// size and prints how many of its pixels are fully opaque.
//
// Usage:
//
//	svgopacity <path> [-p|--percentage] [-s|--square] [--rounding even|half-up|down]
//	                  [--strict] [-o|--output image.png] [-v|--verbose]
package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgopacity/coverage"
	"github.com/benoitkugler/svgopacity/svgicon"
	"github.com/benoitkugler/svgopacity/svgraster"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "svgopacity: %s\n", err)
		os.Exit(1)
	}
}

type options struct {
	percentage bool
	square     bool
	rounding   string
	strict     bool
	output     string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "svgopacity <path>",
		Short: "Count the fully opaque pixels of an SVG document",
		Long: `svgopacity renders the SVG document at its intrinsic size and prints
the number of pixels whose alpha is maximal, or their percentage of the canvas.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.percentage, "percentage", "p", false, "print a percentage of the canvas area instead of a pixel count")
	flags.BoolVarP(&opts.square, "square", "s", false, "with --percentage, use the square of the largest side as denominator")
	flags.StringVar(&opts.rounding, "rounding", coverage.HalfEven.String(), "rounding of percentages: even, half-up or down")
	flags.BoolVar(&opts.strict, "strict", false, "fail on elements which can't be rendered")
	flags.StringVarP(&opts.output, "output", "o", "", "also write the rendered image (.png, .bmp or .tiff)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug information")
	return cmd
}

// newLogger returns a console logger, without timestamps
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), level)
	return zap.New(core)
}

func run(stdout, stderr io.Writer, path string, opts options) error {
	rounding, err := coverage.ParseRounding(opts.rounding)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, opts.verbose)
	defer func() { _ = logger.Sync() }()

	errMode := svgicon.WarnErrorMode
	if opts.strict {
		errMode = svgicon.StrictErrorMode
	}
	doc, err := svgicon.Load(path, svgicon.Options{ErrorMode: errMode, Logger: logger})
	if err != nil {
		return err
	}
	img, err := svgraster.Render(doc, svgraster.Options{Logger: logger})
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := writeImage(opts.output, img); err != nil {
			return err
		}
		logger.Debug("image written", zap.String("path", opts.output))
	}

	report := coverage.Report{
		Count:      coverage.Count(img),
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Percentage: opts.percentage,
		Square:     opts.square,
		Rounding:   rounding,
	}
	_, err = report.WriteTo(stdout)
	return err
}

// writeImage encodes `img` in the format given by the extension of `path`.
func writeImage(path string, img image.Image) (err error) {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		encode = png.Encode
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("writing image: %w", cerr)
		}
	}()
	if err := encode(f, img); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	return nil
}
