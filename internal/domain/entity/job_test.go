package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisJob(t *testing.T) {
	videoID, tenantID := uuid.New(), uuid.New()
	job := NewAnalysisJob(videoID, tenantID)

	assert.Equal(t, videoID, job.VideoID)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, JobStateQueued, job.State)
	assert.Equal(t, 0, job.Progress)
	assert.Empty(t, job.Verdict)
	assert.False(t, job.StartedAt.IsZero())
}

func TestAnalysisJobProgressNeverRewinds(t *testing.T) {
	job := NewAnalysisJob(uuid.New(), uuid.New())

	job.Advance(JobStateProcessing, 50)
	require.Equal(t, 50, job.Progress)

	job.Advance(JobStateProcessing, 30)
	assert.Equal(t, 50, job.Progress, "lower progress must not rewind the cursor")

	job.Advance(JobStateProcessing, 80)
	assert.Equal(t, 80, job.Progress)
}

func TestAnalysisJobMarkCompleted(t *testing.T) {
	job := NewAnalysisJob(uuid.New(), uuid.New())
	job.Advance(JobStateProcessing, 80)

	job.MarkCompleted(SafetyStatusFlagged)

	assert.Equal(t, JobStateCompleted, job.State)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, SafetyStatusFlagged, job.Verdict)
}

func TestAnalysisJobMarkFailed(t *testing.T) {
	job := NewAnalysisJob(uuid.New(), uuid.New())
	job.Advance(JobStateProcessing, 30)

	job.MarkFailed()

	assert.Equal(t, JobStateFailed, job.State)
	assert.Equal(t, 30, job.Progress, "failure keeps the progress reached so far")
	assert.Empty(t, job.Verdict)
}
