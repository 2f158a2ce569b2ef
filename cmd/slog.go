package main

import (
	"io"
	"log/slog"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	logFormatJSON = "json"
	logFormatText = "text"
)

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. Debug
// level gets the colored tint handler with source locations relative to the
// module; everything else is structured JSON, or logfmt text when asked.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if level <= slog.LevelDebug {
		module := moduleDir()
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			AddSource:  true,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if source, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
					source.File = trimSource(source.File, module)
				}
				if err, ok := a.Value.Any().(error); ok {
					errAttr := tint.Err(err)
					errAttr.Key = a.Key
					return errAttr
				}
				return a
			},
		}))
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, logFormatText) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// moduleDir is the last element of the main module path, e.g.
// "shipstation-rates" for github.com/loganlanou/shipstation-rates.
func moduleDir() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		return path.Base(info.Main.Path)
	}
	return "shipstation-rates"
}

// trimSource shortens an absolute source path to its module-relative form.
func trimSource(file, module string) string {
	marker := "/" + module + "/"
	if i := strings.LastIndex(file, marker); i >= 0 {
		return file[i+len(marker):]
	}
	if i := strings.LastIndex(file, "/pkg/mod/"); i >= 0 {
		return file[i+len("/pkg/mod/"):]
	}
	return file
}
