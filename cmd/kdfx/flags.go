package main

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kdfx/internal/extract"
	"github.com/samcharles93/kdfx/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func workersFlag(dst *int) cli.Flag {
	return &cli.IntFlag{
		Name:        "workers",
		Aliases:     []string{"j"},
		Usage:       "channels processed concurrently per file",
		Value:       extract.DefaultWorkers,
		Destination: dst,
	}
}

// newLogger builds the process logger from the logging flags.
func newLogger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}
	return logger.ForFormat(w, format, level), nil
}
