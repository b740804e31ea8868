package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Options selects the level, format and optional rotating file of the standard logger.
type Options struct {
	Level  string
	Format string
	File   string
}

// Setup configures the logrus standard logger and returns it.
// With a file set, output goes to both stderr and a lumberjack rotator.
func Setup(opts Options) (*logrus.Logger, error) {
	log := logrus.StandardLogger()

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	var out io.Writer = os.Stderr
	if opts.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		})
	}
	log.SetOutput(out)

	return log, nil
}
