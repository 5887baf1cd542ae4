package interfaces

import (
	"errors"
	"time"
)

var (
	// ErrJobNotFound is returned by RunJob for an unregistered name
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned by RunJob while the same job is still in progress
	ErrJobRunning = errors.New("job is already running")
)

// JobStatus describes a registered maintenance job
type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Description  string        `json:"description"`
	IsRunning    bool          `json:"is_running"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
}

// SchedulerService runs periodic maintenance jobs such as session sweeps
type SchedulerService interface {
	// RegisterJob adds handler under a five-field cron schedule
	RegisterJob(name, schedule, description string, handler func() error) error
	// RunJob runs a job now and returns its error
	RunJob(name string) error
	// Jobs lists registered jobs by name
	Jobs() []JobStatus
	Start() error
	Stop() error
}
