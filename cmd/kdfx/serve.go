package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kdfx/internal/api"
	"github.com/samcharles93/kdfx/internal/extract"
	"github.com/samcharles93/kdfx/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		outDir      string
		workers     int
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the extraction REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "default output root for extractions",
				Destination: &outDir,
			},
			workersFlag(&workers),
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, appConfig, &addr, &workers)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			server := api.NewServer(api.NewJobStore(), api.Options{
				OutputDir: resolveOutDir(outDir, appConfig.OutputDir),
				Workers:   workers,
				Logger:    log.With("component", "api"),
				Metrics:   extract.NewMetrics(reg),
				Gatherer:  reg,
			})

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			err := sc.Start(ctx, e)
			log.Info("waiting for running extractions")
			server.Wait()
			return err
		},
	}
}
