// Package logging configures debug trace output. When enabled it installs a
// process-wide logrus logger and exposes a pion logging.LoggerFactory so the
// WebRTC library's own diagnostics flow through the same formatter.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/logging"
	"github.com/sirupsen/logrus"
)

// Formatter renders entries as "file:line [LEVEL] HH:MM:SS.uuuuuu - message"
// using local wall-clock time.
type Formatter struct{}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	file := "unknown"
	line := 0
	if entry.HasCaller() {
		file = filepath.Base(entry.Caller.File)
		line = entry.Caller.Line
	}

	msg := entry.Message
	if scope, ok := entry.Data["scope"]; ok {
		msg = fmt.Sprintf("%v: %s", scope, msg)
	}

	return []byte(fmt.Sprintf("%s:%d [%s] %s - %s\n",
		file,
		line,
		strings.ToUpper(entry.Level.String()),
		entry.Time.Local().Format("15:04:05.000000"),
		msg,
	)), nil
}

// Init installs the trace formatter on a new logrus logger, makes it the
// logrus standard logger, and returns it. Call at most once, before any
// WebRTC construction.
func Init() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetReportCaller(true)
	logger.SetFormatter(&Formatter{})

	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.GetLevel())
	logrus.SetReportCaller(true)
	logrus.SetFormatter(&Formatter{})

	return logger
}

// NewLoggerFactory returns a pion logging.LoggerFactory whose loggers write
// through the given logrus logger, tagging each entry with its scope.
func NewLoggerFactory(logger *logrus.Logger) logging.LoggerFactory {
	return &loggerFactory{logger: logger}
}

type loggerFactory struct {
	logger *logrus.Logger
}

func (f *loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{entry: f.logger.WithField("scope", scope)}
}

// leveledLogger adapts a logrus entry to pion's logging.LeveledLogger.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l *leveledLogger) Trace(msg string)                          { l.entry.Trace(msg) }
func (l *leveledLogger) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }
func (l *leveledLogger) Debug(msg string)                          { l.entry.Debug(msg) }
func (l *leveledLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *leveledLogger) Info(msg string)                           { l.entry.Info(msg) }
func (l *leveledLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *leveledLogger) Warn(msg string)                           { l.entry.Warn(msg) }
func (l *leveledLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *leveledLogger) Error(msg string)                          { l.entry.Error(msg) }
func (l *leveledLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
