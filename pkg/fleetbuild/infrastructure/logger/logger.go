package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
)

const sessionFileLayout = "20060102-150405"

// NewTextLogger logs to stderr only. Used until the session log file is known.
func NewTextLogger() applogger.Logger {
	return &logger{entry: logrus.NewEntry(newLogrus(os.Stderr, logrus.InfoLevel))}
}

// NewSessionLogger logs to the console and appends every line to a per-session file under logDir.
func NewSessionLogger(console io.Writer, logDir, level string, now time.Time) (applogger.Logger, io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	sessionFile, err := OpenSessionFile(logDir, now)
	if err != nil {
		return nil, nil, err
	}
	l := newLogrus(io.MultiWriter(console, sessionFile), lvl)
	return &logger{entry: logrus.NewEntry(l)}, sessionFile, nil
}

func OpenSessionFile(logDir string, now time.Time) (*os.File, error) {
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory %v", logDir)
	}
	path := filepath.Join(logDir, fmt.Sprintf("fleetbuild-%v.log", now.Format(sessionFileLayout)))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	return f, errors.Wrapf(err, "failed to open session log %v", path)
}

func newLogrus(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
	return l
}

type logger struct {
	entry *logrus.Entry
}

func (l *logger) Debug(msg string) {
	l.entry.Debug(msg)
}

func (l *logger) Info(msg string) {
	l.entry.Info(msg)
}

func (l *logger) Warning(msg string) {
	l.entry.Warn(msg)
}

func (l *logger) Error(err error, msg string) {
	l.entry.WithError(err).Error(msg)
}

func (l *logger) FatalError(err error, msg string) {
	l.entry.WithError(err).Fatal(msg)
}

func (l *logger) Writer() io.WriteCloser {
	return l.entry.WriterLevel(logrus.InfoLevel)
}
