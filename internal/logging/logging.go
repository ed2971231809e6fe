// Package logging builds the process logger and bridges gorm onto it.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a logrus logger writing JSON, or text in dev mode, at the
// given level. Unknown levels fall back to info.
func New(level string, dev bool) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, dev)
}

func NewWithOutput(out io.Writer, level string, dev bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if dev {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Gorm adapts log for use as gorm's logger. Slow queries (over 200ms) and
// errors are reported; debug switches on every statement.
func Gorm(log *logrus.Logger, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	w := log.WithField("component", "gorm")
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
