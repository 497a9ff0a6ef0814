package scoring

import (
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// Aggregator folds per-frame scores into a single verdict: flagged when the
// peak score exceeds MaxThreshold or the mean exceeds MeanThreshold.
type Aggregator struct {
	MaxThreshold  float64
	MeanThreshold float64
}

func NewAggregator(maxThreshold, meanThreshold float64) *Aggregator {
	return &Aggregator{MaxThreshold: maxThreshold, MeanThreshold: meanThreshold}
}

// Aggregate treats an empty sequence as no evidence of risk, i.e. safe.
func (a *Aggregator) Aggregate(scores []entity.FrameScore) entity.SafetyStatus {
	if len(scores) == 0 {
		return entity.SafetyStatusSafe
	}

	var max, sum float64
	for _, s := range scores {
		if s.Value > max {
			max = s.Value
		}
		sum += s.Value
	}
	mean := sum / float64(len(scores))

	if max > a.MaxThreshold || mean > a.MeanThreshold {
		return entity.SafetyStatusFlagged
	}
	return entity.SafetyStatusSafe
}
