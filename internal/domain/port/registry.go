package port

import (
	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// JobRegistry tracks in-flight analysis jobs keyed by video ID. It is an
// in-process map, last-write-wins, lost on restart. Jobs are passed and
// returned by value so reads are point-in-time snapshots.
type JobRegistry interface {
	// Acquire registers the job if no job exists for its video ID. It is
	// the atomic dispatch gate that keeps runs mutually exclusive per
	// video; a false return means another run is already in flight.
	Acquire(job entity.AnalysisJob) bool

	Upsert(job entity.AnalysisJob)
	Get(videoID uuid.UUID) (entity.AnalysisJob, bool)
	Remove(videoID uuid.UUID)
}
