package api

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/kdfx/internal/extract"
)

// eventStream writes extraction events as server-sent events. Each
// pipeline event is a "data:" frame; the stream closes with a "done"
// event carrying the final job.
type eventStream struct {
	w       io.Writer
	flusher func()
}

func newEventStream(c *echo.Context) (*eventStream, error) {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	return &eventStream{w: res, flusher: flusher.Flush}, nil
}

func (s *eventStream) event(ev extract.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.w, "data: %s\n\n", b)
	return err
}

func (s *eventStream) done(job JobResponse) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: done\ndata: %s\n\n", b); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *eventStream) flush() {
	if s.flusher != nil {
		s.flusher()
	}
}
