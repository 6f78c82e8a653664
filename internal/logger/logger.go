// Package logger provides the process-wide structured logger.
//
// It wraps logrus and keeps a single package-level instance so that every
// component can derive its own entry with WithField("component", ...).
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias of logrus.Fields so callers don't need to import logrus.
type Fields = logrus.Fields

// Log is the shared logger instance.
var Log = newLogger()

// Config holds the logging configuration.
type Config struct {
	Level      string `mapstructure:"level"`       // trace, debug, info, warn, error
	Format     string `mapstructure:"format"`      // text or json
	OutputFile string `mapstructure:"output_file"` // optional rotated log file
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	return l
}

// Configure applies cfg to the shared logger.
func Configure(cfg Config) error {
	if cfg.Level != "" {
		if err := SetLevel(cfg.Level); err != nil {
			return err
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	if cfg.OutputFile == "" {
		Log.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.OutputFile,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}))
	return nil
}

// SetLevel parses level and applies it to the shared logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Log.SetLevel(lvl)
	return nil
}

// WithField returns an entry carrying a single field, typically the component name.
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

// WithFields returns an entry carrying fields.
func WithFields(fields Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

func Infof(format string, args ...interface{}) { Log.Infof(format, args...) }
func Warnf(format string, args ...interface{}) { Log.Warnf(format, args...) }
