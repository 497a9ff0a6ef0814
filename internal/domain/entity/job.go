package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// AnalysisJob is the transient progress cursor of one sensitivity analysis
// run. It lives in the in-memory registry only, keyed by video ID, and is
// removed when the run ends. Process restart loses it; the video record in
// the database remains the durable source of truth.
type AnalysisJob struct {
	VideoID   uuid.UUID
	TenantID  uuid.UUID
	State     JobState
	Progress  int
	Verdict   SafetyStatus
	StartedAt time.Time
	UpdatedAt time.Time
}

func NewAnalysisJob(videoID, tenantID uuid.UUID) AnalysisJob {
	now := time.Now().UTC()
	return AnalysisJob{
		VideoID:   videoID,
		TenantID:  tenantID,
		State:     JobStateQueued,
		Progress:  0,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the job to state with the given progress. Progress is
// monotonic within a run; a lower value never rewinds the cursor.
func (j *AnalysisJob) Advance(state JobState, progress int) {
	j.State = state
	if progress > j.Progress {
		j.Progress = progress
	}
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) MarkCompleted(verdict SafetyStatus) {
	j.State = JobStateCompleted
	j.Progress = 100
	j.Verdict = verdict
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) MarkFailed() {
	j.State = JobStateFailed
	j.UpdatedAt = time.Now().UTC()
}
