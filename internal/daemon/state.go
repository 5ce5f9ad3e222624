package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type State struct {
	mu         sync.RWMutex
	filePath   string
	StartTime  time.Time       `json:"start_time"`
	Jobs       map[string]*Job `json:"jobs"`
	Statistics Statistics      `json:"statistics"`
	LastSave   time.Time       `json:"last_save"`
}

type Statistics struct {
	TotalConversions int       `json:"total_conversions"`
	TotalFailures    int       `json:"total_failures"`
	DaemonStartCount int       `json:"daemon_start_count"`
	LastStartTime    time.Time `json:"last_start_time"`
}

func NewState(filePath string) *State {
	return &State{
		filePath:   filePath,
		StartTime:  time.Now(),
		Jobs:       make(map[string]*Job),
		Statistics: Statistics{},
	}
}

func (s *State) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous state, start fresh
			s.Statistics.DaemonStartCount = 1
			s.Statistics.LastStartTime = time.Now()
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var loadedState State
	if err := json.Unmarshal(data, &loadedState); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}

	// Preserve current start time
	currentStartTime := s.StartTime

	// Copy loaded state
	s.Jobs = loadedState.Jobs
	if s.Jobs == nil {
		s.Jobs = make(map[string]*Job)
	}
	s.Statistics = loadedState.Statistics

	// Update statistics
	s.StartTime = currentStartTime
	s.Statistics.DaemonStartCount++
	s.Statistics.LastStartTime = currentStartTime

	// Clean up old finished jobs
	s.cleanupOldJobs()

	return nil
}

func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.LastSave = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temporary file first
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	// Rename to final location (atomic operation)
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

func (s *State) AddJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Jobs[job.ID] = job
}

func (s *State) UpdateJobs(jobs map[string]*Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Jobs = jobs
}

func (s *State) UpdateJobStatus(id string, status JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.Jobs[id]; exists {
		job.Status = status
		if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
			if job.CompletedAt == nil {
				now := time.Now()
				job.CompletedAt = &now
			}
		}
	}
}

func (s *State) RemoveJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.Jobs, id)
}

func (s *State) GetJobs() map[string]*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make(map[string]*Job, len(s.Jobs))
	for id, job := range s.Jobs {
		jobs[id] = job
	}
	return jobs
}

func (s *State) cleanupOldJobs() {
	cutoff := time.Now().Add(-7 * 24 * time.Hour) // Keep finished jobs for 7 days

	for id, job := range s.Jobs {
		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed || job.Status == JobStatusCancelled {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(s.Jobs, id)
			}
		}
	}
}

func (s *State) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Statistics
}

func (s *State) IncrementConversions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Statistics.TotalConversions++
}

func (s *State) IncrementFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Statistics.TotalFailures++
}
