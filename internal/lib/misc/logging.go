package misc

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

func Errorf(logger *slog.Logger, format string, args ...any) {
	helperf(logger, slog.LevelError, format, args...)
}

func Warnf(logger *slog.Logger, format string, args ...any) {
	helperf(logger, slog.LevelWarn, format, args...)
}

func Infof(logger *slog.Logger, format string, args ...any) {
	helperf(logger, slog.LevelInfo, format, args...)
}

func Debugf(logger *slog.Logger, format string, args ...any) {
	helperf(logger, slog.LevelDebug, format, args...)
}

func helperf(logger *slog.Logger, level slog.Level, format string, args ...any) {
	if !logger.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip [Callers, helperf, [info/warn/debug]f]
	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, args...), pcs[0])
	_ = logger.Handler().Handle(context.Background(), r)
}

// NewLogger returns the process logger: a MinimalHandler when out is a terminal, JSON otherwise with the
// message and level keys renamed for log collectors.
func NewLogger(out *os.File, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if term.IsTerminal(int(out.Fd())) {
		return slog.New(NewMinimalHandler(out, MinimalHandlerOptions{SlogOpts: slog.HandlerOptions{Level: level}}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.MessageKey:
				a.Key = "message"
			case slog.LevelKey:
				a.Key = "severity"
			}
			return a
		},
	}))
}

type MinimalHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// MinimalHandler writes just the message followed by sorted key=value attributes, one record per line.
// Warnings and errors get a level prefix.
type MinimalHandler struct {
	opts  slog.HandlerOptions
	attrs []slog.Attr
	l     *log.Logger
}

func NewMinimalHandler(out io.Writer, opts MinimalHandlerOptions) *MinimalHandler {
	return &MinimalHandler{opts: opts.SlogOpts, l: log.New(out, "", 0)}
}

func (h *MinimalHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

func (h *MinimalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields = append(fields, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
	}
	var own []string
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
		return true
	})
	sort.Strings(own)
	fields = append(fields, own...)

	line := r.Message
	if r.Level >= slog.LevelWarn {
		line = r.Level.String() + ": " + line
	}
	if len(fields) > 0 {
		line += " " + strings.Join(fields, " ")
	}
	h.l.Println(line)
	return nil
}

func (h *MinimalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op, groups are flattened.
func (h *MinimalHandler) WithGroup(string) slog.Handler {
	return h
}
