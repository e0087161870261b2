package api

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/kdfx/internal/extract"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one background extraction and the events it has produced.
type Job struct {
	mu        sync.Mutex
	id        string
	input     string
	outputDir string
	channels  int
	status    JobStatus
	events    []extract.Event
	err       string
	created   time.Time
	completed time.Time
	// changed is closed and replaced whenever events or status change.
	changed chan struct{}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) append(ev extract.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	j.notifyLocked()
}

func (j *Job) finish(err error, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobCompleted
	if err != nil {
		j.status = JobFailed
		j.err = err.Error()
	}
	j.completed = now
	j.notifyLocked()
}

func (j *Job) notifyLocked() {
	close(j.changed)
	j.changed = make(chan struct{})
}

// since returns the events after the first n, whether the job has
// finished, and a channel closed on the next change.
func (j *Job) since(n int) ([]extract.Event, bool, <-chan struct{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []extract.Event
	if n < len(j.events) {
		out = append(out, j.events[n:]...)
	}
	return out, j.status != JobRunning, j.changed
}

// Snapshot copies the job state for serialisation.
func (j *Job) Snapshot() JobResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	resp := JobResponse{
		ID:        j.id,
		Object:    "extraction",
		Status:    j.status,
		Input:     j.input,
		OutputDir: j.outputDir,
		Channels:  j.channels,
		Events:    append([]extract.Event{}, j.events...),
		Error:     j.err,
		CreatedAt: j.created.Unix(),
	}
	if !j.completed.IsZero() {
		completedAt := j.completed.Unix()
		resp.CompletedAt = &completedAt
	}
	return resp
}

// JobStore keeps jobs in memory for the lifetime of the server.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

func (s *JobStore) Create(input, outputDir string, channels int, now time.Time) *Job {
	j := &Job{
		id:        "ext_" + uuid.NewString(),
		input:     input,
		outputDir: outputDir,
		channels:  channels,
		status:    JobRunning,
		created:   now,
		changed:   make(chan struct{}),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	return j
}

func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// List returns every job, oldest first.
func (s *JobStore) List() []*Job {
	s.mu.Lock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.Unlock()
	sortJobs(out)
	return out
}

func sortJobs(jobs []*Job) {
	slices.SortFunc(jobs, func(a, b *Job) int {
		if c := a.created.Compare(b.created); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
}
