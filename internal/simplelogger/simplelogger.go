// Package simplelogger provides autodoc's file-backed logger. Logging is opt-in: records go to the file named by AUTODOC_LOG_FILE, and nowhere otherwise.
package simplelogger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EnvVar names the environment variable holding the log file path.
const EnvVar = "AUTODOC_LOG_FILE"

// New returns a logger appending text records to the file named by AUTODOC_LOG_FILE. If the variable is unset or empty, or the path can't be opened as a file,
// the returned logger discards everything. The returned close func must be called when logging is done; it is never nil.
func New(level slog.Level) (*slog.Logger, func() error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return discard(), func() error { return nil }
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return discard(), func() error { return nil }
	}

	w := &lockedWriter{w: f}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, f.Close
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// lockedWriter serializes writes from concurrent workers so records are not interleaved.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
