package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobStatus  `json:"status"`
	LastRun     time.Time  `json:"lastRun"`
	NextRun     time.Time  `json:"nextRun"`
	Schedule    string     `json:"schedule"`
	RunCount    int        `json:"runCount"`
	ErrorCount  int        `json:"errorCount"`
	LastError   string     `json:"lastError,omitempty"`
	Singleton   bool       `json:"singleton"`
	gocronJob   gocron.Job
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	mu     sync.RWMutex
	jobs   map[string]*JobInfo
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, jobInfo := range s.jobs {
		if nextRun, err := jobInfo.gocronJob.NextRun(); err == nil {
			jobInfo.NextRun = nextRun
			log.Debug("Next run time for job", "id", id, "nextRun", nextRun)
		} else {
			log.Warn("Failed to get next run time for job", "id", id, "error", err)
		}
	}
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddJob adds a new job to the scheduler.
func (s *Scheduler) AddJob(id, name, description, schedule string, jobDef gocron.JobDefinition, jobFunc JobFunc) error {
	return s.addJob(id, name, description, schedule, jobDef, jobFunc, false)
}

// AddSingletonJob adds a job that can only run one instance at a time.
func (s *Scheduler) AddSingletonJob(id, name, description, schedule string, jobDef gocron.JobDefinition, jobFunc JobFunc) error {
	return s.addJob(id, name, description, schedule, jobDef, jobFunc, true)
}

func (s *Scheduler) addJob(
	id, name, description, schedule string,
	jobDef gocron.JobDefinition,
	jobFunc JobFunc,
	singleton bool,
) error {
	jobInfo := &JobInfo{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      JobStatusScheduled,
		Schedule:    schedule,
		Singleton:   singleton,
	}

	var jobOptions []gocron.JobOption
	if singleton {
		jobOptions = append(jobOptions, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	}

	job, err := s.gocron.NewJob(jobDef, gocron.NewTask(s.wrapJobFunc(id, jobFunc)), jobOptions...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	jobInfo.gocronJob = job

	s.mu.Lock()
	s.jobs[id] = jobInfo
	s.mu.Unlock()

	log.Info("Added job to scheduler", "id", id, "name", name, "singleton", singleton)
	return nil
}

// RunJobNow manually triggers a job to run immediately.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	jobInfo, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	log.Info("Manually triggering job", "id", id, "name", jobInfo.Name)
	if err := jobInfo.gocronJob.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a copy of all job information.
func (s *Scheduler) GetJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	return jobs
}

// GetJob returns information about a specific job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *job, true
}

// wrapJobFunc wraps a job function to update job statistics.
func (s *Scheduler) wrapJobFunc(id string, jobFunc JobFunc) func() {
	return func() {
		s.mu.Lock()
		jobInfo := s.jobs[id]
		if jobInfo == nil {
			s.mu.Unlock()
			log.Error("Job info not found", "id", id)
			return
		}
		log.Info("Starting job", "id", id, "name", jobInfo.Name)
		jobInfo.Status = JobStatusRunning
		jobInfo.LastRun = time.Now()
		if nextRun, err := jobInfo.gocronJob.NextRun(); err == nil {
			jobInfo.NextRun = nextRun
		}
		jobInfo.RunCount++
		s.mu.Unlock()

		err := jobFunc(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			log.Error("Job failed", "id", id, "name", jobInfo.Name, "error", err)
			jobInfo.Status = JobStatusFailed
			jobInfo.ErrorCount++
			jobInfo.LastError = err.Error()
			return
		}
		log.Info("Job completed successfully", "id", id, "name", jobInfo.Name)
		jobInfo.Status = JobStatusCompleted
		jobInfo.LastError = ""
	}
}
