package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrAnalysisRunning is returned by Dispatch when the video already has a
// run in flight.
var ErrAnalysisRunning = errors.New("analysis already running for this video")

type AnalyzeVideoUseCase struct {
	videos     port.VideoRepository
	users      port.UserRepository
	store      port.ObjectStore
	extractor  port.FrameExtractor
	scorer     port.FrameScorer
	aggregator port.VerdictAggregator
	registry   port.JobRegistry
	sink       port.ProgressSink
	notifier   port.Notifier
	logger     *zap.Logger

	tempDir          string
	scoreConcurrency int
	runTimeout       time.Duration
}

type AnalyzeVideoConfig struct {
	TempDir          string
	ScoreConcurrency int
	RunTimeout       time.Duration
}

// NewAnalyzeVideoUseCase wires the pipeline. sink and notifier may be nil;
// a nil sink means headless mode, a nil notifier disables emails.
func NewAnalyzeVideoUseCase(
	videos port.VideoRepository,
	users port.UserRepository,
	store port.ObjectStore,
	extractor port.FrameExtractor,
	scorer port.FrameScorer,
	aggregator port.VerdictAggregator,
	registry port.JobRegistry,
	sink port.ProgressSink,
	notifier port.Notifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	if cfg.ScoreConcurrency < 1 {
		cfg.ScoreConcurrency = 1
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	return &AnalyzeVideoUseCase{
		videos:           videos,
		users:            users,
		store:            store,
		extractor:        extractor,
		scorer:           scorer,
		aggregator:       aggregator,
		registry:         registry,
		sink:             sink,
		notifier:         notifier,
		logger:           logger,
		tempDir:          cfg.TempDir,
		scoreConcurrency: cfg.ScoreConcurrency,
		runTimeout:       cfg.RunTimeout,
	}
}

// Dispatch starts an analysis run in the background and returns immediately.
// The registry acquisition is the mutual-exclusion gate: a second dispatch
// for the same video fails with ErrAnalysisRunning until the first run ends.
// The detached goroutine carries its own error boundary so nothing escapes
// to the process level.
func (uc *AnalyzeVideoUseCase) Dispatch(videoID, tenantID uuid.UUID) error {
	job := entity.NewAnalysisJob(videoID, tenantID)
	if !uc.registry.Acquire(job) {
		return ErrAnalysisRunning
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				uc.logger.Error("analysis run panicked",
					zap.String("video_id", videoID.String()),
					zap.Any("panic", r),
				)
				uc.markFailedBestEffort(videoID, tenantID, fmt.Sprintf("internal error: %v", r))
				uc.registry.Remove(videoID)
				metrics.AnalysisRunsTotal.WithLabelValues("panicked").Inc()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), uc.runTimeout)
		defer cancel()
		uc.Run(ctx, job)
	}()

	return nil
}

// JobSnapshot returns the registry view of an in-flight run, if any.
func (uc *AnalyzeVideoUseCase) JobSnapshot(videoID uuid.UUID) (entity.AnalysisJob, bool) {
	return uc.registry.Get(videoID)
}

// Run executes the pipeline synchronously. The job must already be acquired
// in the registry; Run removes it on every exit path.
func (uc *AnalyzeVideoUseCase) Run(ctx context.Context, job entity.AnalysisJob) {
	log := uc.logger.With(
		zap.String("video_id", job.VideoID.String()),
		zap.String("tenant_id", job.TenantID.String()),
	)

	defer uc.registry.Remove(job.VideoID)

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	totalTimer := time.Now()
	verdict, duration, err := uc.runPipeline(ctx, &job, log)
	if err != nil {
		uc.handleFailure(&job, err, log)
		metrics.AnalysisRunsTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.AnalysisRunsTotal.WithLabelValues("completed").Inc()
	metrics.VerdictsTotal.WithLabelValues(string(verdict)).Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("analysis completed",
		zap.String("verdict", string(verdict)),
		zap.Float64("duration_secs", duration),
	)
}

func (uc *AnalyzeVideoUseCase) runPipeline(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) (entity.SafetyStatus, float64, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("video.id", job.VideoID.String()),
		attribute.String("tenant.id", job.TenantID.String()),
	)

	// Stage: start (0 -> 10)
	job.Advance(entity.JobStateProcessing, 10)
	uc.registry.Upsert(*job)

	processing := entity.VideoStatusProcessing
	video, err := uc.videos.UpdateStatus(ctx, job.TenantID, job.VideoID, port.VideoStatusUpdate{Status: &processing})
	if err != nil {
		return "", 0, fmt.Errorf("mark video processing: %w", err)
	}
	uc.emit(ctx, job, "analysis started", 0, "")

	videoPath, err := uc.store.Resolve(ctx, video.StorageKey)
	if err != nil {
		return "", 0, fmt.Errorf("resolve video file: %w", err)
	}

	// Stage: metadata (10 -> 30). A probe failure here degrades to zero
	// duration; extraction gets its own chance to probe.
	mdTimer := time.Now()
	mdCtx, mdSpan := tracer.Start(ctx, "probe_metadata")
	duration, err := uc.extractor.Probe(mdCtx, videoPath)
	mdSpan.End()
	if err != nil {
		log.Warn("duration probe failed, continuing with zero duration", zap.Error(err))
		duration = 0
	}
	if _, err := uc.videos.UpdateStatus(ctx, job.TenantID, job.VideoID, port.VideoStatusUpdate{DurationSeconds: &duration}); err != nil {
		return "", 0, fmt.Errorf("persist duration: %w", err)
	}
	job.Advance(entity.JobStateProcessing, 30)
	uc.registry.Upsert(*job)
	uc.emit(ctx, job, "metadata extracted", duration, "")
	metrics.StageDuration.WithLabelValues("metadata").Observe(time.Since(mdTimer).Seconds())

	// Stage: analysis (30 -> 80). The workdir is exclusive to this run and
	// removed on every exit path below; cleanup failures only log.
	workDir := filepath.Join(uc.tempDir, fmt.Sprintf("run-%s-%d", job.VideoID, time.Now().UnixNano()))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create workdir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("workdir cleanup failed", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	job.Advance(entity.JobStateProcessing, 50)
	uc.registry.Upsert(*job)
	uc.emit(ctx, job, "analyzing frames", duration, "")

	exTimer := time.Now()
	exCtx, exSpan := tracer.Start(ctx, "extract_frames")
	result, err := uc.extractor.ExtractFrames(exCtx, videoPath, workDir)
	exSpan.End()
	if err != nil {
		return "", 0, fmt.Errorf("extract frames: %w", err)
	}
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exTimer).Seconds())
	metrics.FramesExtractedTotal.Add(float64(result.FrameCount))
	if result.VideoDuration > 0 {
		duration = result.VideoDuration
	}

	scTimer := time.Now()
	scCtx, scSpan := tracer.Start(ctx, "score_frames")
	scores := uc.scoreFrames(scCtx, result.FramePaths)
	scSpan.End()
	metrics.StageDuration.WithLabelValues("score").Observe(time.Since(scTimer).Seconds())
	metrics.FramesScoredTotal.Add(float64(len(scores)))

	verdict := uc.aggregator.Aggregate(scores)
	job.Advance(entity.JobStateProcessing, 80)
	uc.registry.Upsert(*job)

	// Stage: finalize (80 -> 100)
	processed := entity.VideoStatusProcessed
	if _, err := uc.videos.UpdateStatus(ctx, job.TenantID, job.VideoID, port.VideoStatusUpdate{
		Status:          &processed,
		SafetyStatus:    &verdict,
		DurationSeconds: &duration,
	}); err != nil {
		return "", 0, fmt.Errorf("persist analysis result: %w", err)
	}

	job.MarkCompleted(verdict)
	uc.registry.Upsert(*job)
	uc.emit(ctx, job, "analysis completed", duration, "")

	if verdict == entity.SafetyStatusFlagged {
		uc.notifyOwner(ctx, video, verdict, "", log)
	}

	return verdict, duration, nil
}

// handleFailure is the single failure path: mark the video failed, move the
// job to failed, emit the failure event. Persistence here is best-effort on
// a fresh context since the run context may already be cancelled.
func (uc *AnalyzeVideoUseCase) handleFailure(job *entity.AnalysisJob, cause error, log *zap.Logger) {
	log.Error("analysis failed", zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := entity.VideoStatusFailed
	errMsg := cause.Error()
	video, err := uc.videos.UpdateStatus(ctx, job.TenantID, job.VideoID, port.VideoStatusUpdate{
		Status:       &failed,
		ErrorMessage: &errMsg,
	})
	if err != nil {
		log.Error("failed to mark video as failed", zap.Error(err))
	}

	job.MarkFailed()
	uc.registry.Upsert(*job)
	uc.emit(ctx, job, "analysis failed", 0, errMsg)

	if video != nil {
		uc.notifyOwner(ctx, video, "", errMsg, log)
	}
}

func (uc *AnalyzeVideoUseCase) markFailedBestEffort(videoID, tenantID uuid.UUID, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := entity.VideoStatusFailed
	if _, err := uc.videos.UpdateStatus(ctx, tenantID, videoID, port.VideoStatusUpdate{
		Status:       &failed,
		ErrorMessage: &errMsg,
	}); err != nil {
		uc.logger.Error("failed to mark video as failed after panic",
			zap.String("video_id", videoID.String()),
			zap.Error(err),
		)
	}
}

// scoreFrames fans the frames out to a bounded worker pool and collects the
// scores. Order is irrelevant to aggregation.
func (uc *AnalyzeVideoUseCase) scoreFrames(ctx context.Context, framePaths []string) []entity.FrameScore {
	if len(framePaths) == 0 {
		return nil
	}

	workers := uc.scoreConcurrency
	if workers > len(framePaths) {
		workers = len(framePaths)
	}

	jobs := make(chan string, len(framePaths))
	results := make(chan entity.FrameScore, len(framePaths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- uc.scorer.Score(ctx, path)
			}
		}()
	}

	for _, path := range framePaths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)

	scores := make([]entity.FrameScore, 0, len(framePaths))
	for score := range results {
		scores = append(scores, score)
	}
	return scores
}

func (uc *AnalyzeVideoUseCase) emit(ctx context.Context, job *entity.AnalysisJob, message string, duration float64, errMsg string) {
	if uc.sink == nil {
		return
	}

	event := entity.ProgressEvent{
		VideoID:      job.VideoID,
		TenantID:     job.TenantID,
		Status:       job.State,
		Progress:     job.Progress,
		Message:      message,
		SafetyStatus: job.Verdict,
		Duration:     duration,
		Error:        errMsg,
	}
	if err := uc.sink.Publish(ctx, event); err != nil {
		uc.logger.Warn("progress publish failed",
			zap.String("video_id", job.VideoID.String()),
			zap.Error(err),
		)
	}
}

func (uc *AnalyzeVideoUseCase) notifyOwner(ctx context.Context, video *entity.Video, verdict entity.SafetyStatus, errMsg string, log *zap.Logger) {
	if uc.notifier == nil {
		return
	}

	owner, err := uc.users.FindByID(ctx, video.TenantID, video.OwnerID)
	if err != nil {
		log.Warn("owner lookup for notification failed", zap.Error(err))
		return
	}

	if errMsg != "" {
		_ = uc.notifier.NotifyFailure(ctx, owner.Email, video.ID.String(), video.Title, errMsg)
		return
	}
	if verdict == entity.SafetyStatusFlagged {
		_ = uc.notifier.NotifyFlagged(ctx, owner.Email, video.ID.String(), video.Title)
	}
}
