// Package api exposes extractions over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/kdfx/internal/extract"
	"github.com/samcharles93/kdfx/internal/logger"
	"github.com/samcharles93/kdfx/pkg/kdf"
)

// Options configures a Server. Zero values select defaults.
type Options struct {
	OutputDir string
	Workers   int
	Logger    logger.Logger
	Metrics   *extract.Metrics
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Server struct {
	store     *JobStore
	outputDir string
	workers   int
	log       logger.Logger
	metrics   *extract.Metrics
	gatherer  prometheus.Gatherer
	clock     func() time.Time
	jobs      sync.WaitGroup
}

func NewServer(store *JobStore, opts Options) *Server {
	if store == nil {
		store = NewJobStore()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Server{
		store:     store,
		outputDir: opts.OutputDir,
		workers:   opts.Workers,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		gatherer:  opts.Gatherer,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/extractions", s.handleCreateExtraction)
	e.GET("/v1/extractions", s.handleListExtractions)
	e.GET("/v1/extractions/:id", s.handleGetExtraction)
	e.GET("/v1/extractions/:id/events", s.handleExtractionEvents)
	e.POST("/v1/inspect", s.handleInspect)
	if s.gatherer != nil {
		h := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		e.GET("/metrics", func(c *echo.Context) error {
			h.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}
}

// Wait blocks until every background extraction has finished.
func (s *Server) Wait() {
	s.jobs.Wait()
}

func (s *Server) handleCreateExtraction(c *echo.Context) error {
	req, err := decodeJSON[ExtractionRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if err := req.validate(); err != nil {
		return writeBadRequest(c, err.Error())
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = s.outputDir
	}
	workers := req.Workers
	if workers == 0 {
		workers = s.workers
	}

	ex, err := extract.New(extract.Config{
		InputPath: req.Path,
		OutputDir: outDir,
		Workers:   workers,
		Logger:    s.log,
		Metrics:   s.metrics,
	})
	if err != nil {
		return writeExtractError(c, err)
	}

	job := s.store.Create(req.Path, ex.OutputDir(), len(ex.Header().Channels), s.clock())
	log := s.log.With("job", job.ID())
	log.Info("extraction started", "input", req.Path, "output", ex.OutputDir())

	s.jobs.Go(func() {
		defer func() { _ = ex.Close() }()
		err := ex.Run(context.Background(), job.append, nil)
		if err != nil {
			log.Error("extraction failed", "err", err)
		}
		job.finish(err, s.clock())
	})

	return c.JSON(http.StatusAccepted, job.Snapshot())
}

func (s *Server) handleListExtractions(c *echo.Context) error {
	jobs := s.store.List()
	resp := JobList{Object: "list", Data: make([]JobResponse, len(jobs))}
	for i, j := range jobs {
		resp.Data[i] = j.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetExtraction(c *echo.Context) error {
	job, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "extraction not found")
	}
	return c.JSON(http.StatusOK, job.Snapshot())
}

func (s *Server) handleExtractionEvents(c *echo.Context) error {
	job, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "extraction not found")
	}
	sw, err := newEventStream(c)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	ctx := c.Request().Context()
	sent := 0
	for {
		events, done, changed := job.since(sent)
		for _, ev := range events {
			if err := sw.event(ev); err != nil {
				return nil
			}
		}
		sent += len(events)
		sw.flush()
		if done {
			_ = sw.done(job.Snapshot())
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) handleInspect(c *echo.Context) error {
	req, err := decodeJSON[InspectRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Path == "" {
		return writeBadRequest(c, "path is required")
	}
	f, err := kdf.Open(req.Path)
	if err != nil {
		return writeExtractError(c, err)
	}
	defer func() { _ = f.Close() }()
	return c.JSON(http.StatusOK, kdf.Describe(f.Header))
}

func writeExtractError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, kdf.ErrHeaderNotFound), errors.Is(err, kdf.ErrParserData):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_kdf_error", err.Error())
	case errors.Is(err, extract.ErrInvalidConfig):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		return writeNotFound(c, err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("invalid JSON body: " + err.Error())
	}
	return out, nil
}
