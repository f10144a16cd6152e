// Package logging builds the zerolog logger used by the dleframe CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at the given level. A nil w
// logs to stderr.
func New(level zerolog.Level, w io.Writer) zerolog.Logger {
	noColor := true
	if w == nil {
		w = colorable.NewColorableStderr()
		noColor = !isatty.IsTerminal(os.Stderr.Fd())
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "dleframe").Logger()
}
