// Package health carries structured errors and logging through autodoc's pipeline.
//
// A HealthErr is an error with a message, optional slog-style attrs, and an optional wrapped cause. Its Error string serializes all three
// (`msg[k=v] via cause`), so one line in a diagnostic says what failed and where. LogErr logs such an error with its attrs as real slog attributes instead.
// Ctx bundles a logger for embedding into options structs; a zero Ctx logs nothing.
package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// HealthErr is an error with structured attrs. Create one with NewErr or Wrap.
type HealthErr struct {
	Message string
	wrapped error
	attrs   []any
}

// Error returns the message, then attrs in text-handler form, then the wrapped error after " via ".
func (e *HealthErr) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, e.attrs)
		b.WriteString("]")
	}
	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *HealthErr) Unwrap() error {
	return e.wrapped
}

// Attrs returns the error's attrs (slog key/value args or slog.Attrs).
func (e *HealthErr) Attrs() []any {
	return e.attrs
}

// NewErr returns an unlogged error. args are slog-style: key/value pairs or slog.Attrs.
func NewErr(msg string, args ...any) error {
	return &HealthErr{Message: msg, attrs: args}
}

// Wrap returns an error wrapping cause. errors.Is and errors.As see through it.
func Wrap(msg string, cause error, args ...any) error {
	if cause == nil {
		cause = errors.New("health.Wrap called with a nil error")
	}
	return &HealthErr{Message: msg, wrapped: cause, attrs: args}
}

// LogNewErr creates an error with NewErr, logs it, and returns it.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr creates an error with Wrap, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, cause error, args ...any) error {
	return LogErr(logger, Wrap(msg, cause, args...))
}

// LogErr logs err at error level and returns it, so callers can log and return in one line:
//
//	return health.LogErr(logger, health.Wrap("read file", err, "path", path))
//
// A *HealthErr (or *HumanErr) is logged with its own message and attrs, followed by a "via" attr holding the cause, followed by args. Other errors are logged as
// err.Error() with args. A nil logger or nil err logs nothing.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}

	var h *HealthErr
	switch e := err.(type) {
	case *HealthErr:
		h = e
	case *HumanErr:
		h = &e.HealthErr
	default:
		logger.Error(err.Error(), args...)
		return err
	}

	all := make([]any, 0, len(h.attrs)+len(args)+1)
	all = append(all, h.attrs...)
	if h.wrapped != nil {
		all = append(all, slog.String("via", h.wrapped.Error()))
	}
	all = append(all, args...)
	logger.Error(h.Message, all...)
	return err
}

// HumanErr is a HealthErr with a separate message for end users. Error returns only the human message; the embedded HealthErr is what gets logged.
type HumanErr struct {
	HumanMessage string
	HealthErr
}

// NewHumanErr returns a *HumanErr.
func NewHumanErr(humanMsg string, msg string, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, HealthErr: HealthErr{Message: msg, attrs: args}}
}

func (e *HumanErr) Error() string {
	if e.HumanMessage == "" {
		return e.HealthErr.Error()
	}
	return e.HumanMessage
}

// writeAttrs writes attrs in slog text-handler form (ex: `num=3 str="hi"`).
func writeAttrs(b *strings.Builder, attrs []any) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey {
				return slog.Attr{}
			}
			return a
		},
	}
	logger := slog.New(slog.NewTextHandler(&trimNewline{w: b}, opts))
	logger.Log(context.Background(), slog.LevelDebug, "", attrs...)
}

// trimNewline drops the single trailing newline the text handler writes.
type trimNewline struct {
	w io.Writer
}

func (t *trimNewline) Write(p []byte) (int, error) {
	if n := len(p); n > 0 && p[n-1] == '\n' {
		if _, err := t.w.Write(p[:n-1]); err != nil {
			return 0, err
		}
		return n, nil
	}
	return t.w.Write(p)
}
