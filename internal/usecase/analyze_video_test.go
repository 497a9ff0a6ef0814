package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/memory"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/scoring"
)

type fakeVideoRepo struct {
	mu            sync.Mutex
	videos        map[uuid.UUID]*entity.Video
	updates       []port.VideoStatusUpdate
	failProcessed bool
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: map[uuid.UUID]*entity.Video{}}
}

func (r *fakeVideoRepo) Create(_ context.Context, video *entity.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *video
	r.videos[video.ID] = &copied
	return nil
}

func (r *fakeVideoRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok || video.TenantID != tenantID {
		return nil, port.ErrNotFound
	}
	copied := *video
	return &copied, nil
}

func (r *fakeVideoRepo) List(_ context.Context, tenantID uuid.UUID, _ port.VideoFilter) ([]*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Video
	for _, v := range r.videos {
		if v.TenantID == tenantID {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, update port.VideoStatusUpdate) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok || video.TenantID != tenantID {
		return nil, port.ErrNotFound
	}
	if r.failProcessed && update.Status != nil && *update.Status == entity.VideoStatusProcessed {
		return nil, errors.New("database unavailable")
	}

	if update.Status != nil {
		video.Status = *update.Status
	}
	if update.SafetyStatus != nil {
		video.SafetyStatus = *update.SafetyStatus
	}
	if update.DurationSeconds != nil {
		video.DurationSeconds = *update.DurationSeconds
	}
	if update.ErrorMessage != nil {
		video.ErrorMessage = *update.ErrorMessage
	}
	video.UpdatedAt = time.Now().UTC()
	r.updates = append(r.updates, update)

	copied := *video
	return &copied, nil
}

func (r *fakeVideoRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok || video.TenantID != tenantID {
		return port.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) snapshot(id uuid.UUID) entity.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.videos[id]
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.TenantID != tenantID {
		return nil, port.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, port.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, tenantID uuid.UUID) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type fakeStore struct {
	resolvePath string
	resolveErr  error
}

func (s *fakeStore) Save(context.Context, string, io.Reader, int64, string) error { return nil }

func (s *fakeStore) Resolve(context.Context, string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.resolvePath, nil
}

func (s *fakeStore) Stat(context.Context, string) (port.ObjectInfo, error) {
	return port.ObjectInfo{}, nil
}

func (s *fakeStore) Remove(context.Context, string) error { return nil }

type fakeExtractor struct {
	mu              sync.Mutex
	probeDuration   float64
	probeErr        error
	frames          int
	extractErr      error
	extractDuration float64
	panicOnExtract  bool

	gate        chan struct{}
	started     chan struct{}
	startedOnce sync.Once
	workDirs    []string
}

func (e *fakeExtractor) Probe(context.Context, string) (float64, error) {
	if e.probeErr != nil {
		return 0, e.probeErr
	}
	return e.probeDuration, nil
}

func (e *fakeExtractor) ExtractFrames(_ context.Context, _ string, outputDir string) (*port.FrameExtractionResult, error) {
	e.mu.Lock()
	e.workDirs = append(e.workDirs, outputDir)
	e.mu.Unlock()

	if e.started != nil {
		e.startedOnce.Do(func() { close(e.started) })
	}
	if e.gate != nil {
		<-e.gate
	}
	if e.panicOnExtract {
		panic("extractor exploded")
	}
	if e.extractErr != nil {
		return nil, e.extractErr
	}

	paths := make([]string, 0, e.frames)
	for i := 0; i < e.frames; i++ {
		path := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(path, []byte("frame"), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return &port.FrameExtractionResult{
		FramePaths:    paths,
		FrameCount:    len(paths),
		VideoDuration: e.extractDuration,
	}, nil
}

func (e *fakeExtractor) firstWorkDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.workDirs) == 0 {
		return ""
	}
	return e.workDirs[0]
}

type fixedScorer struct{ value float64 }

func (s fixedScorer) Score(context.Context, string) entity.FrameScore {
	return entity.FrameScore{Value: s.value}
}

type fakeSink struct {
	mu     sync.Mutex
	events []entity.ProgressEvent
}

func (s *fakeSink) Publish(_ context.Context, event entity.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSink) all() []entity.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	flagged  []string
	failures []string
}

func (n *fakeNotifier) NotifyFlagged(_ context.Context, userEmail, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flagged = append(n.flagged, userEmail)
	return nil
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, userEmail, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, userEmail)
	return nil
}

type pipelineFixture struct {
	videos    *fakeVideoRepo
	users     *fakeUserRepo
	store     *fakeStore
	extractor *fakeExtractor
	scorer    port.FrameScorer
	sink      *fakeSink
	notifier  *fakeNotifier
	registry  *memory.JobRegistry

	video *entity.Video
	owner *entity.User
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		videos:    newFakeVideoRepo(),
		users:     newFakeUserRepo(),
		store:     &fakeStore{resolvePath: "/tmp/video.mp4"},
		extractor: &fakeExtractor{probeDuration: 42.5, frames: 3, extractDuration: 42.5},
		scorer:    fixedScorer{value: 0.2},
		sink:      &fakeSink{},
		notifier:  &fakeNotifier{},
		registry:  memory.NewJobRegistry(),
	}

	tenantID := uuid.New()
	f.owner = entity.NewUser(tenantID, "owner@example.com", "hash", entity.RoleMember)
	require.NoError(t, f.users.Create(context.Background(), f.owner))

	f.video = entity.NewVideo(tenantID, f.owner.ID, "holiday", "holiday.mp4", "key/holiday.mp4", "video/mp4", 1024)
	require.NoError(t, f.videos.Create(context.Background(), f.video))

	return f
}

func (f *pipelineFixture) build(t *testing.T) *AnalyzeVideoUseCase {
	t.Helper()
	return NewAnalyzeVideoUseCase(
		f.videos,
		f.users,
		f.store,
		f.extractor,
		f.scorer,
		scoring.NewAggregator(0.7, 0.5),
		f.registry,
		f.sink,
		f.notifier,
		zap.NewNop(),
		AnalyzeVideoConfig{TempDir: t.TempDir(), ScoreConcurrency: 2, RunTimeout: time.Minute},
	)
}

func (f *pipelineFixture) runSync(t *testing.T, uc *AnalyzeVideoUseCase) {
	t.Helper()
	job := entity.NewAnalysisJob(f.video.ID, f.video.TenantID)
	require.True(t, f.registry.Acquire(job))
	uc.Run(context.Background(), job)
}

func TestRunCompletesSafeVideo(t *testing.T) {
	f := newPipelineFixture(t)
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusProcessed, video.Status)
	assert.Equal(t, entity.SafetyStatusSafe, video.SafetyStatus)
	assert.Equal(t, 42.5, video.DurationSeconds)
	assert.Empty(t, video.ErrorMessage)

	_, ok := f.registry.Get(f.video.ID)
	assert.False(t, ok, "registry entry must be removed when the run ends")

	events := f.sink.all()
	require.Len(t, events, 4)
	assert.Equal(t, []int{10, 30, 50, 100}, []int{events[0].Progress, events[1].Progress, events[2].Progress, events[3].Progress})
	assert.Equal(t, entity.JobStateProcessing, events[0].Status)
	assert.Equal(t, "analysis started", events[0].Message)
	assert.Equal(t, "metadata extracted", events[1].Message)
	assert.Equal(t, 42.5, events[1].Duration)
	assert.Equal(t, "analyzing frames", events[2].Message)
	assert.Equal(t, entity.JobStateCompleted, events[3].Status)
	assert.Equal(t, entity.SafetyStatusSafe, events[3].SafetyStatus)

	workDir := f.extractor.firstWorkDir()
	require.NotEmpty(t, workDir)
	assert.NoDirExists(t, workDir, "workdir must be cleaned up after the run")

	assert.Empty(t, f.notifier.flagged, "safe verdicts must not notify")
}

func TestRunFlagsAndNotifiesOwner(t *testing.T) {
	f := newPipelineFixture(t)
	f.scorer = fixedScorer{value: 0.9}
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusProcessed, video.Status)
	assert.Equal(t, entity.SafetyStatusFlagged, video.SafetyStatus)

	require.Len(t, f.notifier.flagged, 1)
	assert.Equal(t, "owner@example.com", f.notifier.flagged[0])

	events := f.sink.all()
	require.NotEmpty(t, events)
	assert.Equal(t, entity.SafetyStatusFlagged, events[len(events)-1].SafetyStatus)
}

func TestRunExtractionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.extractor.extractErr = errors.New("ffmpeg exploded")
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusFailed, video.Status)
	assert.Equal(t, entity.SafetyStatusUnknown, video.SafetyStatus, "failure must not assign a verdict")
	assert.Contains(t, video.ErrorMessage, "ffmpeg exploded")

	_, ok := f.registry.Get(f.video.ID)
	assert.False(t, ok)

	events := f.sink.all()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, entity.JobStateFailed, last.Status)
	assert.Equal(t, "analysis failed", last.Message)
	assert.Contains(t, last.Error, "ffmpeg exploded")

	workDir := f.extractor.firstWorkDir()
	require.NotEmpty(t, workDir)
	assert.NoDirExists(t, workDir, "workdir must be cleaned up on failure too")

	require.Len(t, f.notifier.failures, 1)
	assert.Equal(t, "owner@example.com", f.notifier.failures[0])
}

func TestRunResolveFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.resolveErr = port.ErrNotFound
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusFailed, video.Status)
	assert.Contains(t, video.ErrorMessage, "resolve video file")
}

func TestRunProbeFailureDegrades(t *testing.T) {
	f := newPipelineFixture(t)
	f.extractor.probeErr = errors.New("ffprobe missing")
	f.extractor.extractDuration = 33
	uc := f.build(t)

	f.runSync(t, uc)

	// A failed duration probe is not fatal; extraction supplies the duration.
	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusProcessed, video.Status)
	assert.Equal(t, float64(33), video.DurationSeconds)
}

func TestRunNoFramesIsSafe(t *testing.T) {
	f := newPipelineFixture(t)
	f.extractor.frames = 0
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusProcessed, video.Status)
	assert.Equal(t, entity.SafetyStatusSafe, video.SafetyStatus)
}

func TestRunFinalizePersistenceFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.videos.failProcessed = true
	uc := f.build(t)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusFailed, video.Status)
	assert.Contains(t, video.ErrorMessage, "persist analysis result")

	events := f.sink.all()
	require.NotEmpty(t, events)
	assert.Equal(t, entity.JobStateFailed, events[len(events)-1].Status)
}

func TestRunHeadlessWithoutSinkOrNotifier(t *testing.T) {
	f := newPipelineFixture(t)
	uc := NewAnalyzeVideoUseCase(
		f.videos, f.users, f.store, f.extractor, f.scorer,
		scoring.NewAggregator(0.7, 0.5), f.registry, nil, nil,
		zap.NewNop(),
		AnalyzeVideoConfig{TempDir: t.TempDir()},
	)

	f.runSync(t, uc)

	video := f.videos.snapshot(f.video.ID)
	assert.Equal(t, entity.VideoStatusProcessed, video.Status)
}

func TestDispatchMutualExclusion(t *testing.T) {
	f := newPipelineFixture(t)
	f.extractor.gate = make(chan struct{})
	f.extractor.started = make(chan struct{})
	uc := f.build(t)

	require.NoError(t, uc.Dispatch(f.video.ID, f.video.TenantID))

	select {
	case <-f.extractor.started:
	case <-time.After(2 * time.Second):
		t.Fatal("extraction never started")
	}

	// The first run holds the registry slot, so a second dispatch loses.
	err := uc.Dispatch(f.video.ID, f.video.TenantID)
	assert.ErrorIs(t, err, ErrAnalysisRunning)

	job, ok := uc.JobSnapshot(f.video.ID)
	require.True(t, ok)
	assert.Equal(t, entity.JobStateProcessing, job.State)
	assert.Equal(t, 50, job.Progress)

	close(f.extractor.gate)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Get(f.video.ID)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return f.videos.snapshot(f.video.ID).Status == entity.VideoStatusProcessed
	}, 5*time.Second, 10*time.Millisecond)

	// With the first run finished the video can be dispatched again.
	assert.NoError(t, uc.Dispatch(f.video.ID, f.video.TenantID))
	require.Eventually(t, func() bool {
		_, ok := f.registry.Get(f.video.ID)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	f := newPipelineFixture(t)
	f.extractor.panicOnExtract = true
	uc := f.build(t)

	require.NoError(t, uc.Dispatch(f.video.ID, f.video.TenantID))

	require.Eventually(t, func() bool {
		return f.videos.snapshot(f.video.ID).Status == entity.VideoStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	video := f.videos.snapshot(f.video.ID)
	assert.Contains(t, video.ErrorMessage, "internal error")

	require.Eventually(t, func() bool {
		_, ok := f.registry.Get(f.video.ID)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}
