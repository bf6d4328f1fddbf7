package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/google/uuid"
)

// JobStatus represents the state of an outline job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusBuilding  JobStatus = "building"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	output   *Output
	errors   []string
}

// Progress summarizes what the build found.
type Progress struct {
	Headers   int      `json:"headers"`
	Entries   int      `json:"entries"`
	Truncated bool     `json:"truncated"`
	Errors    []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// NewJob creates a queued job for the given upload.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	hash := ContentHashHex(data)
	job := &Job{
		ID:          newJobID(),
		DocID:       hash[:16],
		ContentHash: hash,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	job.SetFileData(data)
	return job
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetOutput stores the finished build and releases the upload bytes.
func (j *Job) SetOutput(out *Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output = out
	j.fileData = nil
	if j.Title == "" {
		j.Title = out.Title
	}
	if res := out.Outline; res != nil {
		j.Progress.Headers = res.Headers
		j.Progress.Entries = len(res.Entries)
		j.Progress.Truncated = res.Truncated
	}
	j.UpdatedAt = time.Now()
}

// Output returns the finished build, or nil.
func (j *Job) Output() *Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			Headers:   j.Progress.Headers,
			Entries:   j.Progress.Entries,
			Truncated: j.Progress.Truncated,
			Errors:    errs,
		},
	}
}

// Result is the JSON view of a finished job.
type Result struct {
	JobSnapshot
	Outline *outline.Result `json:"outline"`
}

// Result returns the finished job view, or false while the job is not done.
func (j *Job) Result() (Result, bool) {
	snap := j.Snapshot()
	out := j.Output()
	if out == nil {
		return Result{JobSnapshot: snap}, false
	}
	return Result{JobSnapshot: snap, Outline: out.Outline}, true
}

// newJobID returns a time-ordered UUIDv7, so ids sort by submission time.
func newJobID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
