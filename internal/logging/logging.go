// Package logging builds the process logger and adapts it for GORM.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a logrus logger writing to stdout. Unknown levels fall back to
// info; format is "json" or "text".
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return log
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// gormWriter adapts logrus to gorm's logger.Writer.
type gormWriter struct {
	entry *logrus.Entry
}

func (w gormWriter) Printf(format string, args ...any) {
	w.entry.Warnf(format, args...)
}

// GORM returns a gorm logger that writes through log at Warn level.
func GORM(log *logrus.Logger, slowQuery time.Duration) gormlogger.Interface {
	return gormlogger.New(
		gormWriter{entry: log.WithField("component", "gorm")},
		gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
