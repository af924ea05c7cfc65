package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB   = 50
	maxLogBackups  = 5
	maxLogAgeDays  = 28
	timestampShape = "2006-01-02 15:04:05 Z0700"
)

// Logger is the logging interface handed to every component.
type Logger = logrus.FieldLogger

// Fields is a collection of fields attached to a log entry.
type Fields = logrus.Fields

var (
	mu     sync.Mutex
	logger *logrus.Logger
)

// New builds a logger at the given level. When logFile is empty entries go
// to fallback, otherwise to a rotated file.
func New(levelStr, logFile string, fallback io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	newLogger := logrus.New()
	newLogger.SetLevel(level)
	if logFile == "" {
		newLogger.SetOutput(fallback)
	} else {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return nil, errors.WithStack(err)
		}
		newLogger.SetOutput(&lumberjack.Logger{
			Filename:   filepath.Clean(logFile),
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		})
	}
	newLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        timestampShape,
		DisableLevelTruncation: true,
	})
	return newLogger, nil
}

// Init replaces the process-wide logger.
func Init(levelStr, logFile string, fallback io.Writer) error {
	newLogger, err := New(levelStr, logFile, fallback)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = newLogger
	mu.Unlock()
	return nil
}

// Root returns the process-wide logger, creating an info level stdout
// logger when Init was never called.
func Root() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger, _ = New(logrus.InfoLevel.String(), "", os.Stdout) // nolint: errcheck // "info" always parses.
	}
	return logger
}

// WithComponent returns a logger that tags every entry with the component name.
func WithComponent(name string) Logger {
	return Root().WithField("component", name)
}

// Writer exposes the root logger as an io.Writer for libraries that log
// lines. It follows later calls to Init.
func Writer() io.Writer {
	return rootWriter{}
}

// rootWriter logs each written line at info level on the current root logger.
type rootWriter struct{}

func (rootWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimRight(line, "\r "); line != "" {
			Root().Info(line)
		}
	}
	return len(p), nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
