// Package extract turns KDF files into per-channel reports and CSVs.
//
// Each channel is decoded and written by one worker from a bounded pool.
// Workers report progress over a shared event queue; the coordinator
// forwards those events, merges the per-channel CSVs into data.csv once
// every channel has ended, and emits a final summary event.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/kdfx/internal/logger"
	"github.com/samcharles93/kdfx/pkg/kdf"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 1

var ErrInvalidConfig = errors.New("invalid extraction config")

// Config configures one file extraction.
type Config struct {
	InputPath string
	OutputDir string
	// Workers bounds the number of channels processed at once.
	// Zero selects DefaultWorkers.
	Workers int
	Logger  logger.Logger
	Metrics *Metrics
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Extractor runs the pipeline for one open KDF file.
type Extractor struct {
	file     *kdf.File
	fileName string
	outDir   string
	workers  int
	log      logger.Logger
	metrics  *Metrics
}

// New opens and parses the input file, then creates
// <OutputDir>/<sanitised stem>. Header and descriptor errors are returned
// before anything is created on disk.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	f, err := kdf.Open(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	fileName := FileStem(cfg.InputPath)
	outDir := filepath.Join(cfg.OutputDir, fileName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &Extractor{
		file:     f,
		fileName: fileName,
		outDir:   outDir,
		workers:  workers,
		log:      log.With("file", fileName),
		metrics:  cfg.Metrics,
	}, nil
}

func (e *Extractor) Header() *kdf.Header {
	return e.file.Header
}

// OutputDir is the directory receiving this file's outputs.
func (e *Extractor) OutputDir() string {
	return e.outDir
}

func (e *Extractor) Close() error {
	return e.file.Close()
}

// channelResult is written by exactly one worker before its end event.
type channelResult struct {
	csvPath string
	csvOK   bool
}

// Run processes every channel and merges the results. onEvent receives
// every non-terminal event in arrival order, then the merge event and the
// summary event; onSuccess is called once after the summary. Either
// callback may be nil. Run does not stop early when ctx is done: once
// dispatched, every channel runs to completion or to its own failure.
func (e *Extractor) Run(ctx context.Context, onEvent func(Event), onSuccess func()) error {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	start := time.Now()
	defer e.metrics.observeRun(start)

	hdr := e.file.Header
	channels := hdr.Channels
	results := make([]channelResult, len(channels))
	queue := newEventQueue(4 * e.workers)

	e.log.Info("extracting", "channels", len(channels), "workers", e.workers, "mapped", e.file.Mapped())
	e.warnSharedParts(channels)

	go func() {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i, ch := range channels {
			g.Go(func() error {
				e.processChannel(ch, hdr.MeasuredTimestamp, &results[i], queue)
				return nil
			})
		}
		_ = g.Wait()
	}()

	for remaining := len(channels); remaining > 0; {
		ev := queue.Recv()
		if ev.Terminal() {
			remaining--
			continue
		}
		onEvent(ev)
	}

	parts := make([]string, 0, len(results))
	merged := make(map[string]bool, len(results))
	for i, r := range results {
		if !r.csvOK {
			e.log.Warn("leaving channel out of merge", "channel", channels[i].Label)
			continue
		}
		if merged[r.csvPath] {
			continue
		}
		merged[r.csvPath] = true
		parts = append(parts, r.csvPath)
	}
	mergedPath := filepath.Join(e.outDir, MergedFileName)
	mergeErr := mergeCSV(mergedPath, parts)
	e.metrics.fileWritten("merged", mergeErr)
	if mergeErr != nil {
		e.log.Error("merge failed", "path", mergedPath, "err", mergeErr)
		onEvent(Event{TaskID: MergeTask, Message: MergedFileName + " - " + mergeErr.Error(), Path: mergedPath, Err: mergeErr})
	} else {
		onEvent(fileEvent(MergeTask, mergedPath, nil))
	}

	onEvent(Event{TaskID: NoTask, Message: MessageSummary})
	e.log.Info("extraction finished", "channels", len(channels), "merged", len(parts), "elapsed", time.Since(start))
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// warnSharedParts logs channels whose labels map to the same output files.
// Their writes race and the merge includes the shared CSV once.
func (e *Extractor) warnSharedParts(channels []kdf.Channel) {
	first := make(map[string]int, len(channels))
	for _, ch := range channels {
		part := partName(ch.Label)
		if idx, ok := first[part]; ok {
			e.log.Warn("channels share output files", "part", part, "task_id", ch.Index, "first_task_id", idx)
			continue
		}
		first[part] = ch.Index
	}
}

// processChannel decodes and writes one channel. Its end event is always
// sent, including after a decode failure or a panic.
func (e *Extractor) processChannel(ch kdf.Channel, measured string, res *channelResult, q *eventQueue) {
	task := ChannelTask(ch.Index)
	log := e.log.With("channel", ch.Label, "task_id", ch.Index)
	defer q.Send(endEvent(task))

	var failure error
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("channel %s: panic: %v", ch.Label, r)
			log.Error("channel worker panicked", "err", failure)
			q.Send(Event{TaskID: task, Message: ch.Label + " - " + failure.Error(), Err: failure})
		}
		e.metrics.channelDone(failure)
	}()

	raw, err := e.file.ChannelData(ch)
	if err == nil {
		e.metrics.decoded(len(raw))
		var decoded *DecodedChannel
		decoded, err = DecodeChannel(raw, ch, measured)
		if err == nil {
			failure = e.writeChannel(ch, decoded, res, q, log)
			return
		}
	}
	failure = err
	log.Error("channel skipped", "err", err)
	q.Send(Event{TaskID: task, Message: ch.Label + " - " + err.Error(), Err: err})
}

func (e *Extractor) writeChannel(ch kdf.Channel, d *DecodedChannel, res *channelResult, q *eventQueue, log logger.Logger) error {
	task := ChannelTask(ch.Index)
	out := newChannelOutput(e.outDir, e.fileName, ch.Label)
	if d.Rows() != d.Datapoints {
		log.Warn("value and timestamp counts differ", "values", d.Datapoints, "timestamps", len(d.Timestamps))
	}

	report, csvOut := out.writeAll(d, func(o writeOutcome) {
		if o.err != nil {
			log.Error("write failed", "path", o.path, "err", o.err)
		} else {
			log.Debug("saved", "path", o.path)
		}
		q.Send(fileEvent(task, o.path, o.err))
	})
	e.metrics.fileWritten("txt", report.err)
	e.metrics.fileWritten("csv", csvOut.err)

	res.csvPath = csvOut.path
	res.csvOK = csvOut.err == nil
	return errors.Join(report.err, csvOut.err)
}

// Extract opens, runs and closes an extraction in one call.
func Extract(ctx context.Context, cfg Config, onEvent func(Event), onSuccess func()) error {
	if cfg.Logger == nil {
		cfg.Logger = logger.FromContext(ctx)
	}
	ex, err := New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ex.Close() }()
	return ex.Run(ctx, onEvent, onSuccess)
}
