// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"invoiceocr/internal/config"
)

var (
	log  = logrus.New()
	once sync.Once
)

// Init configures the global logger from cfg. Only the first call has effect.
func Init(cfg config.LogConfig) {
	once.Do(func() {
		configure(log, cfg, os.Stdout)
	})
}

// New builds a standalone logger writing to w, configured like the global one.
func New(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	l := logrus.New()
	configure(l, cfg, w)
	return l
}

func configure(l *logrus.Logger, cfg config.LogConfig, w io.Writer) {
	l.SetOutput(w)
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// L returns the global logger instance.
func L() *logrus.Logger {
	return log
}
