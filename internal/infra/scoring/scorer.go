package scoring

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"go.uber.org/zap"
)

// Signal weights of the blended score.
const (
	brightnessWeight = 0.3
	contrastWeight   = 0.3
	colorWeight      = 0.2
	sizeWeight       = 0.2
)

// Byte-size risk steps. Tunable policy, not a law of nature.
var sizeRiskSteps = []struct {
	below int64
	risk  float64
}{
	{5 << 10, 0.1},
	{50 << 10, 0.3},
	{200 << 10, 0.6},
}

const sizeRiskCap = 0.8

// Scorer derives a sensitivity estimate from raw pixel statistics. It is a
// deterministic heuristic standing in for a real classifier; the orchestrator
// only sees the FrameScorer port, so swapping it out is a wiring change.
type Scorer struct {
	logger *zap.Logger
}

func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score never fails outward: any read or decode error logs a warning and
// yields the zero score, so one corrupt frame cannot abort a run.
func (s *Scorer) Score(_ context.Context, framePath string) entity.FrameScore {
	score, err := s.scoreFile(framePath)
	if err != nil {
		s.logger.Warn("frame scoring failed, scoring as zero",
			zap.String("frame", framePath),
			zap.Error(err),
		)
		return entity.FrameScore{}
	}
	return score
}

func (s *Scorer) scoreFile(framePath string) (entity.FrameScore, error) {
	info, err := os.Stat(framePath)
	if err != nil {
		return entity.FrameScore{}, fmt.Errorf("stat frame: %w", err)
	}

	f, err := os.Open(framePath)
	if err != nil {
		return entity.FrameScore{}, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return entity.FrameScore{}, fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return entity.FrameScore{}, fmt.Errorf("empty image")
	}

	var sum, sumSq [3]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			cr := float64(r>>8) / 255
			cg := float64(g>>8) / 255
			cb := float64(b>>8) / 255
			sum[0] += cr
			sum[1] += cg
			sum[2] += cb
			sumSq[0] += cr * cr
			sumSq[1] += cg * cg
			sumSq[2] += cb * cb
		}
	}

	n := float64(pixels)
	var mean, stddev [3]float64
	for i := 0; i < 3; i++ {
		mean[i] = sum[i] / n
		variance := sumSq[i]/n - mean[i]*mean[i]
		if variance < 0 {
			variance = 0
		}
		stddev[i] = math.Sqrt(variance)
	}

	brightness := (mean[0] + mean[1] + mean[2]) / 3
	contrast := (stddev[0] + stddev[1] + stddev[2]) / 3

	d01 := mean[0] - mean[1]
	d02 := mean[0] - mean[2]
	d12 := mean[1] - mean[2]
	colorVariance := (d01*d01 + d02*d02 + d12*d12) / 3

	brightnessRisk := 1 - math.Abs(brightness-0.5)*2
	contrastRisk := math.Min(1, contrast*2)
	colorRisk := math.Min(1, math.Sqrt(colorVariance)*2)
	sizeRisk := riskForSize(info.Size())

	value := brightnessWeight*brightnessRisk +
		contrastWeight*contrastRisk +
		colorWeight*colorRisk +
		sizeWeight*sizeRisk

	return entity.FrameScore{
		Value:          clamp01(value),
		BrightnessRisk: brightnessRisk,
		ContrastRisk:   contrastRisk,
		ColorRisk:      colorRisk,
		SizeRisk:       sizeRisk,
	}, nil
}

func riskForSize(size int64) float64 {
	for _, step := range sizeRiskSteps {
		if size < step.below {
			return step.risk
		}
	}
	return sizeRiskCap
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
