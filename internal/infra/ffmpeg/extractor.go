package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"go.uber.org/zap"
)

// ProbeError wraps an ffprobe failure.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string { return "probe video: " + e.Err.Error() }
func (e *ProbeError) Unwrap() error { return e.Err }

// ExtractionError wraps a frame extraction failure with the stage that
// produced it ("probe", "screenshot" or "collect").
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string { return "extract frames (" + e.Stage + "): " + e.Err.Error() }
func (e *ExtractionError) Unwrap() error { return e.Err }

type ExtractorConfig struct {
	FFmpegPath      string
	FFprobePath     string
	IntervalSeconds float64
	FrameCap        int
	Format          string
}

type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	interval    float64
	frameCap    int
	format      string
	logger      *zap.Logger
}

func NewExtractor(cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Extractor{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		interval:    cfg.IntervalSeconds,
		frameCap:    cfg.FrameCap,
		format:      cfg.Format,
		logger:      logger,
	}
}

// PlanTimestamps returns the sampling offsets (seconds) for a video of the
// given duration: clamp(floor(duration/interval), 1, frameCap) timestamps at
// 0, interval, 2*interval, ... An unknown or zero duration falls back to a
// single sample at 1s.
func PlanTimestamps(duration, interval float64, frameCap int) []float64 {
	if frameCap < 1 {
		frameCap = 1
	}
	if duration <= 0 || interval <= 0 {
		return []float64{1}
	}

	n := int(duration / interval)
	if n < 1 {
		n = 1
	}
	if n > frameCap {
		n = frameCap
	}

	timestamps := make([]float64, n)
	for i := range timestamps {
		timestamps[i] = float64(i) * interval
	}
	return timestamps
}

// Probe returns the container duration in seconds via ffprobe.
func (e *Extractor) Probe(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, &ProbeError{Err: fmt.Errorf("ffprobe: %w", err)}
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, &ProbeError{Err: fmt.Errorf("parse duration %q: %w", durationStr, err)}
	}
	return duration, nil
}

// ExtractFrames probes the video, plans sampling timestamps and shells out
// to ffmpeg once per timestamp. A probe failure here aborts the extraction;
// the metadata stage tolerates one, this stage cannot plan without it.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*port.FrameExtractionResult, error) {
	duration, err := e.Probe(ctx, videoPath)
	if err != nil {
		return nil, &ExtractionError{Stage: "probe", Err: err}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &ExtractionError{Stage: "screenshot", Err: fmt.Errorf("create output dir: %w", err)}
	}

	timestamps := PlanTimestamps(duration, e.interval, e.frameCap)
	for i, ts := range timestamps {
		framePath := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.%s", i, e.format))
		cmd := exec.CommandContext(ctx, e.ffmpegPath,
			"-hide_banner",
			"-loglevel", "error",
			"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
			"-i", videoPath,
			"-frames:v", "1",
			"-q:v", "2",
			"-y",
			framePath,
		)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return nil, &ExtractionError{
				Stage: "screenshot",
				Err:   fmt.Errorf("ffmpeg at %.3fs: %w, output: %s", ts, err, string(output)),
			}
		}
	}

	globPattern := filepath.Join(outputDir, fmt.Sprintf("*.%s", e.format))
	frames, err := filepath.Glob(globPattern)
	if err != nil {
		return nil, &ExtractionError{Stage: "collect", Err: fmt.Errorf("glob frames: %w", err)}
	}
	if len(frames) == 0 {
		return nil, &ExtractionError{Stage: "collect", Err: fmt.Errorf("no frames extracted from video")}
	}

	e.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameExtractionResult{
		FramePaths:    frames,
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}
