package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger printf-style wrapper over logrus, writes JSON to stdout and, optionally, to a file
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

// New создает логгер. Пустой file означает вывод только в stdout
func New(file string, level string) (*Logger, error) {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	base.SetLevel(logLevel)

	l := &Logger{entry: logrus.NewEntry(base)}

	if file == "" {
		base.SetOutput(os.Stdout)
		return l, nil
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	base.SetOutput(io.MultiWriter(os.Stdout, f))
	l.file = f

	return l, nil
}

// NewWithWriter для тестов и встраивания
func NewWithWriter(w io.Writer, level logrus.Level) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetOutput(w)
	base.SetLevel(level)
	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, logrus.PanicLevel)
}

// With returns a child logger carrying structured fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), file: l.file}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// Fatal логирует и завершает процесс
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.entry.Fatalf(format, v...)
}

// Close закрывает файл логов, если он открыт
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
