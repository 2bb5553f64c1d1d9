package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobAborted   JobStatus = "aborted"
)

// Stage is one state of a training or evaluation run.
type Stage string

const (
	StageLoad          Stage = "LOAD"
	StageSplit         Stage = "SPLIT"
	StageRank          Stage = "RANK"
	StageBuildPipeline Stage = "BUILD_PIPELINE"
	StageCVAccuracy    Stage = "CV_ACCURACY"
	StageFitFinal      Stage = "FIT_FINAL"
	StageCVROCAUC      Stage = "CV_ROC_AUC"
	StageCVPRAUC       Stage = "CV_PR_AUC"
	StageReport        Stage = "REPORT"
	StagePersist       Stage = "PERSIST"

	StageLoadArtifact  Stage = "LOAD_ARTIFACT"
	StageLoadData      Stage = "LOAD_DATA"
	StagePredict       Stage = "PREDICT"
	StageReportMetrics Stage = "REPORT_METRICS"
	StageRenderFigure  Stage = "RENDER_FIGURE"

	StageDone    Stage = "DONE"
	StageAborted Stage = "ABORTED"
)

type StageRecord struct {
	Stage   Stage
	Entered time.Time
}

type Job struct {
	ID        string
	Type      string
	Status    JobStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error
	Stages    []StageRecord
	Logs      []string
	mu        sync.RWMutex
}

type Manager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Job),
	}
}

func (m *Manager) CreateJob(jobType string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := NewJob(jobType)
	m.jobs[job.ID] = job
	return job
}

func (m *Manager) GetJob(jobID string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	return job, exists
}

// Summary is a point-in-time copy of a job, safe to log after the run.
type Summary struct {
	ID       string
	Type     string
	Status   JobStatus
	History  []Stage
	Logs     []string
	Duration time.Duration
	Err      error
}

// Summary snapshots the registered job with the given ID.
func (m *Manager) Summary(jobID string) (Summary, bool) {
	job, ok := m.GetJob(jobID)
	if !ok {
		return Summary{}, false
	}
	s := Summary{
		ID:       job.ID,
		Type:     job.Type,
		Status:   job.GetStatus(),
		History:  job.History(),
		Logs:     job.GetLogs(),
		Duration: job.Duration(),
	}
	job.mu.RLock()
	s.Err = job.Error
	job.mu.RUnlock()
	return s, true
}

func NewJob(jobType string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobPending,
		StartTime: time.Now(),
	}
}

// Enter records a transition. The first transition marks the job running;
// DONE and ABORTED end it.
func (j *Job) Enter(stage Stage) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	j.Stages = append(j.Stages, StageRecord{Stage: stage, Entered: now})
	switch stage {
	case StageDone:
		j.Status = JobCompleted
		j.EndTime = &now
	case StageAborted:
		j.Status = JobAborted
		j.EndTime = &now
	default:
		j.Status = JobRunning
	}
}

func (j *Job) SetError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Error = err
	j.Status = JobFailed
	now := time.Now()
	j.EndTime = &now
}

func (j *Job) AddLog(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	timestamp := time.Now().Format("15:04:05")
	j.Logs = append(j.Logs, fmt.Sprintf("[%s] %s", timestamp, message))
}

func (j *Job) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

func (j *Job) Current() Stage {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.Stages) == 0 {
		return ""
	}
	return j.Stages[len(j.Stages)-1].Stage
}

// History returns the stages visited, in order.
func (j *Job) History() []Stage {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Stage, len(j.Stages))
	for i, rec := range j.Stages {
		out[i] = rec.Stage
	}
	return out
}

func (j *Job) GetLogs() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	logs := make([]string, len(j.Logs))
	copy(logs, j.Logs)
	return logs
}

func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.EndTime == nil {
		return time.Since(j.StartTime)
	}
	return j.EndTime.Sub(j.StartTime)
}
