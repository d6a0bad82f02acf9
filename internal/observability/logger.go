package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger. Output is JSON on stdout; dev and
// test log at debug, everything else at info.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(env)}

	return slog.New(NewContextHandler(slog.NewJSONHandler(w, opts)))
}

func levelFor(env string) slog.Level {
	switch strings.ToLower(env) {
	case "dev", "test":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
