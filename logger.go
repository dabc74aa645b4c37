package gauge

import (
	"log/slog"

	"github.com/flavioheleno/gaugesprite/internal/logger"
)

// SetLogger configures the logger used by gauge, sprite and ili9341.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: sprite allocation, controller commands, draws
//   - [slog.LevelWarn]: failures while releasing a sprite
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.L()
}
