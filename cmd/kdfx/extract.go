package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kdfx/internal/extract"
	"github.com/samcharles93/kdfx/internal/logger"
)

func extractCmd() *cli.Command {
	var (
		files      []string
		dir        string
		outDir     string
		workers    int
		jsonEvents bool
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Write per-channel reports, CSVs and data.csv for KDF files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "KDF file to extract (repeatable)",
				Destination: &files,
			},
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "extract every .kdf file in a directory",
				Destination: &dir,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output root (default $" + envKdfxOutDir + " or ./out)",
				Destination: &outDir,
			},
			workersFlag(&workers),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print events as JSON lines",
				Destination: &jsonEvents,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyWorkersConfig(cmd, appConfig, &workers)

			inputs, err := resolveInputs(files, dir)
			if err != nil {
				return err
			}
			root := resolveOutDir(outDir, appConfig.OutputDir)
			printer := eventPrinter(outWriter(cmd), jsonEvents)

			var errs []error
			for _, input := range inputs {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := extract.Extract(ctx, extract.Config{
					InputPath: input,
					OutputDir: root,
					Workers:   workers,
					Logger:    log,
				}, printer, nil)
				if err != nil {
					log.Error("extraction failed", "input", input, "err", err)
					errs = append(errs, fmt.Errorf("%s: %w", input, err))
				}
			}
			if len(errs) > 0 {
				return errors.Join(errs...)
			}
			return nil
		},
	}
}

func eventPrinter(w io.Writer, asJSON bool) func(extract.Event) {
	if asJSON {
		enc := json.NewEncoder(w)
		return func(ev extract.Event) {
			_ = enc.Encode(ev)
		}
	}
	return func(ev extract.Event) {
		_, _ = fmt.Fprintf(w, "[%s] %s\n", ev.TaskID, ev.Message)
	}
}
