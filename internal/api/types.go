package api

import (
	"strings"

	"github.com/samcharles93/kdfx/internal/extract"
)

// ExtractionRequest starts an extraction of a KDF file on the server's
// filesystem.
type ExtractionRequest struct {
	Path string `json:"path"`
	// OutputDir overrides the server's output root.
	OutputDir string `json:"output_dir,omitempty"`
	Workers   int    `json:"workers,omitempty"`
}

func (r ExtractionRequest) validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return newInvalidRequest("path is required")
	}
	if r.Workers < 0 {
		return newInvalidRequest("workers must not be negative")
	}
	return nil
}

type JobResponse struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	Status      JobStatus       `json:"status"`
	Input       string          `json:"input"`
	OutputDir   string          `json:"output_dir"`
	Channels    int             `json:"channels"`
	Events      []extract.Event `json:"events"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	CompletedAt *int64          `json:"completed_at,omitempty"`
}

type JobList struct {
	Object string        `json:"object"`
	Data   []JobResponse `json:"data"`
}

type InspectRequest struct {
	Path string `json:"path"`
}
