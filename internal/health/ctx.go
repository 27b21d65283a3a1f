package health

import "log/slog"

// Ctx is embedded in options structs to give operations a logger. The zero Ctx discards everything.
type Ctx struct {
	Logger *slog.Logger
}

// NewCtx returns a Ctx for logger.
func NewCtx(logger *slog.Logger) Ctx {
	return Ctx{Logger: logger}
}

// With returns a Ctx whose logger adds args to every record.
func (c Ctx) With(args ...any) Ctx {
	if c.Logger == nil {
		return c
	}
	return Ctx{Logger: c.Logger.With(args...)}
}

func (c Ctx) LogNewErr(msg string, args ...any) error {
	return LogNewErr(c.Logger, msg, args...)
}

func (c Ctx) LogWrappedErr(msg string, wrapped error, args ...any) error {
	return LogWrappedErr(c.Logger, msg, wrapped, args...)
}

func (c Ctx) LogErr(err error, args ...any) error {
	return LogErr(c.Logger, err, args...)
}

// Log writes an info record.
func (c Ctx) Log(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

// Debug writes a debug record.
func (c Ctx) Debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}
