package port

import (
	"context"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// FrameScorer estimates the sensitivity of a single frame image. It never
// fails outward: unreadable or corrupt frames score zero and the error is
// logged by the implementation.
type FrameScorer interface {
	Score(ctx context.Context, framePath string) entity.FrameScore
}

// VerdictAggregator folds per-frame scores into one verdict. An empty score
// sequence is safe, not an error.
type VerdictAggregator interface {
	Aggregate(scores []entity.FrameScore) entity.SafetyStatus
}
