package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ytframes/internal/config"
	"ytframes/internal/logging"
	"ytframes/internal/session"
)

// SessionLogs manages one JSON log file per session.
type SessionLogs struct {
	baseDir string
	level   slog.Level
}

// NewSessionLogs places session logs under <log_dir>/sessions.
func NewSessionLogs(cfg *config.Config) *SessionLogs {
	logs := &SessionLogs{level: slog.LevelInfo}
	if cfg != nil {
		if strings.TrimSpace(cfg.Paths.LogDir) != "" {
			logs.baseDir = filepath.Join(cfg.Paths.LogDir, "sessions")
		}
		logs.level = logging.ParseLevel(cfg.Logging.Level)
	}
	return logs
}

// Path returns the log file of a session, or "" when no log dir is configured.
func (l *SessionLogs) Path(id string) string {
	if l == nil || l.baseDir == "" || id == "" {
		return ""
	}
	return filepath.Join(l.baseDir, id+".log")
}

// Logger returns base teed into the session log file, tagged with the session
// id. The returned closer releases the file.
func (l *SessionLogs) Logger(base *slog.Logger, sess *session.Session) (*slog.Logger, io.Closer, error) {
	tagged := func(logger *slog.Logger) *slog.Logger {
		return logger.With(logging.String(logging.FieldSessionID, sess.ID))
	}
	path := l.Path(sess.ID)
	if path == "" {
		return tagged(base), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return tagged(base), nopCloser{}, fmt.Errorf("ensure session log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return tagged(base), nopCloser{}, fmt.Errorf("open session log: %w", err)
	}
	return tagged(logging.TeeLogger(base, logging.NewJSONHandler(f, l.level))), f, nil
}

// Remove deletes a session log file.
func (l *SessionLogs) Remove(id string) error {
	path := l.Path(id)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
