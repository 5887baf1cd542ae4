// -----------------------------------------------------------------------
// Package scheduler runs the site's maintenance jobs (planner session
// sweeps, admin session cleanup, storage GC) on cron schedules
// -----------------------------------------------------------------------

package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
)

// job is one registered entry. Fields below id are guarded by Service.mu.
type job struct {
	svc         *Service
	name        string
	schedule    string
	description string
	handler     func() error
	id          cron.EntryID

	running      bool
	runs         int
	failures     int
	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
}

// Run implements cron.Job
func (j *job) Run() {
	_ = j.svc.execute(j)
}

// Service implements interfaces.SchedulerService on robfig/cron
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	jobs    map[string]*job
	started bool
}

// NewService creates a stopped scheduler
func NewService(logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		cron:   cron.New(cron.WithLogger(cronLogger{logger})),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

func (s *Service) RegisterJob(name, schedule, description string, handler func() error) error {
	if handler == nil {
		return fmt.Errorf("job %s: handler cannot be nil", name)
	}
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{svc: s, name: name, schedule: schedule, description: description, handler: handler}
	id, err := s.cron.AddJob(schedule, j)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	j.id = id
	s.jobs[name] = j

	s.logger.Debug().Str("job", name).Str("schedule", schedule).Msg("Job registered")
	return nil
}

func (s *Service) RunJob(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, interfaces.ErrJobNotFound)
	}
	return s.execute(j)
}

// execute runs j unless it is already in progress. A panic counts as a failure.
func (s *Service) execute(j *job) (err error) {
	s.mu.Lock()
	if j.running {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", j.name, interfaces.ErrJobRunning)
	}
	j.running = true
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
		elapsed := time.Since(start)

		s.mu.Lock()
		j.running = false
		j.runs++
		j.lastRun = start
		j.lastDuration = elapsed
		j.lastError = ""
		if err != nil {
			j.failures++
			j.lastError = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Error().Err(err).Str("job", j.name).Dur("duration", elapsed).Msg("Job failed")
		} else {
			s.logger.Debug().Str("job", j.name).Dur("duration", elapsed).Msg("Job completed")
		}
	}()

	return j.handler()
}

func (s *Service) Jobs() []interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]interfaces.JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := interfaces.JobStatus{
			Name:         j.name,
			Schedule:     j.schedule,
			Description:  j.description,
			IsRunning:    j.running,
			Runs:         j.runs,
			Failures:     j.failures,
			LastDuration: j.lastDuration,
			LastError:    j.lastError,
		}
		if !j.lastRun.IsZero() {
			last := j.lastRun
			st.LastRun = &last
		}
		if s.started {
			if next := s.cron.Entry(j.id).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.started = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop waits for jobs fired by cron to return. Calling it twice is a no-op.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// cronLogger sends robfig/cron's own messages to arbor
type cronLogger struct {
	logger arbor.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Str("component", "cron").Msg(msg + formatKV(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Str("component", "cron").Msg(msg + formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	var out string
	for i := 0; i+1 < len(kv); i += 2 {
		out += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return out
}
