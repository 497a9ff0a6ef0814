package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// JobRegistry is the in-process job map, keyed by video ID. Jobs are stored
// by value so Get hands out point-in-time snapshots. Nothing here survives
// a restart; the video record in the database is the durable state.
type JobRegistry struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entity.AnalysisJob
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[uuid.UUID]entity.AnalysisJob)}
}

// Acquire inserts the job only when its video has no job in flight. The
// check and insert are one critical section, which is what makes dispatch
// mutually exclusive per video.
func (r *JobRegistry) Acquire(job entity.AnalysisJob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.VideoID]; exists {
		return false
	}
	r.jobs[job.VideoID] = job
	return true
}

func (r *JobRegistry) Upsert(job entity.AnalysisJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.VideoID] = job
}

func (r *JobRegistry) Get(videoID uuid.UUID) (entity.AnalysisJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[videoID]
	return job, ok
}

func (r *JobRegistry) Remove(videoID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, videoID)
}
