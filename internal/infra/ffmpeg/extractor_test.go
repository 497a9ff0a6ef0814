package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlanTimestampsFiftySecondsAtFive(t *testing.T) {
	got := PlanTimestamps(50, 5, 10)

	require.Len(t, got, 10)
	assert.Equal(t, []float64{0, 5, 10, 15, 20, 25, 30, 35, 40, 45}, got)
}

func TestPlanTimestampsZeroDuration(t *testing.T) {
	assert.Equal(t, []float64{1}, PlanTimestamps(0, 5, 10))
	assert.Equal(t, []float64{1}, PlanTimestamps(-3, 5, 10))
}

func TestPlanTimestampsShortVideo(t *testing.T) {
	// Duration below one interval still yields one sample, at the start.
	assert.Equal(t, []float64{0}, PlanTimestamps(3, 5, 10))
}

func TestPlanTimestampsCapEnforced(t *testing.T) {
	got := PlanTimestamps(100000, 5, 10)

	require.Len(t, got, 10)
	assert.Equal(t, float64(45), got[len(got)-1])
}

func TestPlanTimestampsCountProperty(t *testing.T) {
	const frameCap = 10

	for _, duration := range []float64{0, 0.5, 1, 4.9, 5, 7, 25, 49.9, 50, 51, 500} {
		for _, interval := range []float64{0.5, 1, 5, 10} {
			got := PlanTimestamps(duration, interval, frameCap)

			want := 1
			if duration > 0 {
				want = int(duration / interval)
				if want < 1 {
					want = 1
				}
				if want > frameCap {
					want = frameCap
				}
			}
			assert.Len(t, got, want, "duration=%v interval=%v", duration, interval)

			for i := 1; i < len(got); i++ {
				assert.Greater(t, got[i], got[i-1])
			}
		}
	}
}

func TestProbeMissingBinary(t *testing.T) {
	extractor := NewExtractor(ExtractorConfig{
		FFprobePath:     "/nonexistent/ffprobe",
		IntervalSeconds: 5,
		FrameCap:        10,
		Format:          "jpg",
	}, zap.NewNop())

	_, err := extractor.Probe(context.Background(), "whatever.mp4")
	require.Error(t, err)

	var probeErr *ProbeError
	assert.ErrorAs(t, err, &probeErr)
}

func TestExtractFramesProbeFailureAborts(t *testing.T) {
	extractor := NewExtractor(ExtractorConfig{
		FFmpegPath:      "/nonexistent/ffmpeg",
		FFprobePath:     "/nonexistent/ffprobe",
		IntervalSeconds: 5,
		FrameCap:        10,
		Format:          "jpg",
	}, zap.NewNop())

	outputDir := filepath.Join(t.TempDir(), "frames")
	_, err := extractor.ExtractFrames(context.Background(), "whatever.mp4", outputDir)
	require.Error(t, err)

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "probe", exErr.Stage)

	// The failure happened before any directory was committed.
	_, statErr := os.Stat(outputDir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
