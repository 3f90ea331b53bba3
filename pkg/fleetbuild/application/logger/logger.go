package logger

import "io"

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
	Error(err error, msg string)
	FatalError(err error, msg string)
	// Writer streams raw external tool output into the log at info level.
	Writer() io.WriteCloser
}
