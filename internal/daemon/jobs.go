package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/pkg/types"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

type Job struct {
	ID          string              `json:"id"`
	Status      JobStatus           `json:"status"`
	Model       string              `json:"model"`
	OutputName  string              `json:"output_name"`
	Config      *convert.PassConfig `json:"config,omitempty"`
	OutputPath  string              `json:"output_path,omitempty"`
	Components  []string            `json:"components,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// RunFunc executes one conversion job and returns the produced handler.
type RunFunc func(ctx context.Context, job *Job) (types.Handler, error)

// JobManager owns the conversion queue. Jobs run one at a time: a
// conversion saturates the machine, so there is no parallel worker pool.
type JobManager struct {
	mu      sync.RWMutex
	state   *State
	jobs    map[string]*Job
	queue   chan string
	cancels map[string]context.CancelFunc
	run     RunFunc
}

func NewJobManager(state *State, run RunFunc) *JobManager {
	return &JobManager{
		state:   state,
		jobs:    make(map[string]*Job),
		queue:   make(chan string, 64),
		cancels: make(map[string]context.CancelFunc),
		run:     run,
	}
}

// Submit queues a new conversion job
func (jm *JobManager) Submit(model, outputName string, cfg *convert.PassConfig) (*Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:          uuid.New().String(),
		Status:      JobStatusPending,
		Model:       model,
		OutputName:  outputName,
		Config:      cfg,
		SubmittedAt: time.Now(),
	}

	select {
	case jm.queue <- job.ID:
	default:
		return nil, fmt.Errorf("job queue is full")
	}

	jm.jobs[job.ID] = job
	jm.state.AddJob(job)

	return job, nil
}

// Start runs the serial conversion worker until ctx is cancelled
func (jm *JobManager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-jm.queue:
			jm.runJob(ctx, id)
		}
	}
}

func (jm *JobManager) runJob(ctx context.Context, id string) {
	jm.mu.Lock()
	job, exists := jm.jobs[id]
	if !exists || job.Status != JobStatusPending {
		jm.mu.Unlock()
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	jm.cancels[id] = cancel

	now := time.Now()
	job.Status = JobStatusRunning
	job.StartedAt = &now
	jm.state.UpdateJobStatus(id, JobStatusRunning)
	jm.mu.Unlock()

	handler, err := jm.run(jobCtx, job)

	jm.mu.Lock()
	defer jm.mu.Unlock()

	delete(jm.cancels, id)
	cancel()

	done := time.Now()
	job.CompletedAt = &done

	switch {
	case jobCtx.Err() != nil && job.Status == JobStatusCancelled:
		// Cancelled while running; status already set by CancelJob
	case err != nil:
		job.Status = JobStatusFailed
		job.Error = err.Error()
		jm.state.IncrementFailures()
	default:
		job.Status = JobStatusCompleted
		job.OutputPath = handler.Path()
		if components := handler.ComponentNames(); len(components) > 0 {
			job.Components = components
		}
		jm.state.IncrementConversions()
	}

	jm.state.UpdateJobs(jm.jobs)
}

func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	return job, exists
}

func (jm *JobManager) GetAllJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

func (jm *JobManager) GetActiveJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0)
	for _, j := range jm.jobs {
		if j.Status == JobStatusPending || j.Status == JobStatusRunning {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

func (jm *JobManager) CancelJob(id string) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	switch job.Status {
	case JobStatusPending:
		job.Status = JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		jm.state.UpdateJobStatus(id, JobStatusCancelled)
	case JobStatusRunning:
		job.Status = JobStatusCancelled
		jm.state.UpdateJobStatus(id, JobStatusCancelled)
		if cancel, ok := jm.cancels[id]; ok {
			cancel()
		}
	default:
		return fmt.Errorf("job is not active")
	}

	return nil
}

func (jm *JobManager) GetActiveCount() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	count := 0
	for _, j := range jm.jobs {
		if j.Status == JobStatusPending || j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}

func (jm *JobManager) CleanupOldJobs(olderThan time.Duration) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)

	for id, job := range jm.jobs {
		// Only clean up finished jobs
		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed || job.Status == JobStatusCancelled {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(jm.jobs, id)
				jm.state.RemoveJob(id)
			}
		}
	}
}

// RestoreJobs reloads finished jobs from a previous run so their results
// stay queryable. Jobs that were pending or running when the daemon
// stopped are marked failed; the subprocess is gone.
func (jm *JobManager) RestoreJobs(jobs map[string]*Job) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for id, job := range jobs {
		if job.Status == JobStatusPending || job.Status == JobStatusRunning {
			job.Status = JobStatusFailed
			job.Error = "daemon stopped before job finished"
			if job.CompletedAt == nil {
				now := time.Now()
				job.CompletedAt = &now
			}
		}
		jm.jobs[id] = job
	}

	jm.state.UpdateJobs(jm.jobs)
}
