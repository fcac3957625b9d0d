package svgicon

import (
	"os"

	"github.com/go-text/typesetting/fontscan"
	"go.uber.org/zap"
)

// fontLogger adapts zap to fontscan.Logger
type fontLogger struct{ *zap.SugaredLogger }

func (fl fontLogger) Printf(format string, args ...interface{}) { fl.Debugf(format, args...) }

// loadSystemFonts enumerates the fonts installed on the system.
// The font index is built in a temporary directory, removed
// before returning.
// It returns nil if no font is available.
func loadSystemFonts(logger *zap.Logger) *fontscan.FontMap {
	dir, err := os.MkdirTemp("", "svgopacity-fonts")
	if err != nil {
		logger.Warn("creating font cache directory, text is skipped", zap.Error(err))
		return nil
	}
	defer os.RemoveAll(dir)

	fm := fontscan.NewFontMap(fontLogger{logger.Sugar()})
	if err := fm.UseSystemFonts(dir); err != nil {
		logger.Warn("loading system fonts, text is skipped", zap.Error(err))
		return nil
	}
	return fm
}
