// Package obslog wires up the process-wide zerolog logger: a
// human-readable console writer for interactive CLI runs, plain JSON
// for anything piped or run under a scheduler, and a couple of
// helpers for the progress-style "N/total done" lines long bootstrap
// runs want to emit.
//
// Grounded on cmd/cryptorun/main.go's logger bootstrap and
// internal/log/progress.go's progress-line helper.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is parsed via zerolog.ParseLevel; an unrecognized or empty
	// string falls back to zerolog.InfoLevel.
	Level string
	// Pretty forces the ConsoleWriter formatter regardless of whether
	// the writer is a terminal; used for "I want readable logs in CI" runs.
	Pretty bool
	Writer io.Writer
}

// New builds the process logger per opts.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = opts.Writer
	if w == nil {
		w = os.Stderr
	}

	if opts.Pretty || isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ProgressLine logs a "stage: done/total (pct%)" line at info level,
// the shape long bootstrap/tournament runs emit once per strategy so
// an operator can watch a batch job's throughput without --verbose.
func ProgressLine(log *zerolog.Logger, stage string, done, total int) {
	if log == nil || total <= 0 {
		return
	}
	pct := 100 * float64(done) / float64(total)
	log.Info().Str("stage", stage).Int("done", done).Int("total", total).
		Float64("pct", pct).Msg("progress")
}
