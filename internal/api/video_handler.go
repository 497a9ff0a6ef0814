package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/metrics"
	"github.com/sidhardha7/content-sensitivity-backend/internal/usecase"
	"go.uber.org/zap"
)

// Accepted upload containers and the content type recorded for each.
var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

type videoHandler struct {
	videos   port.VideoRepository
	store    port.ObjectStore
	pipeline *usecase.AnalyzeVideoUseCase
	logger   *zap.Logger
	maxBytes int64
}

func newVideoHandler(videos port.VideoRepository, store port.ObjectStore, pipeline *usecase.AnalyzeVideoUseCase, logger *zap.Logger, maxBytes int64) *videoHandler {
	return &videoHandler{
		videos:   videos,
		store:    store,
		pipeline: pipeline,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Upload accepts a multipart video, stores it and dispatches the analysis
// pipeline. It answers 202 before the analysis finishes; progress is
// observed via the progress channel or GET /videos/:id/analysis.
func (h *videoHandler) Upload(c *gin.Context) {
	claims := claimsFrom(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := videoContentTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported video container %q", ext)})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = header.Filename
	}

	video := entity.NewVideo(claims.TenantID, claims.UserID, title, header.Filename, "", contentType, header.Size)
	video.StorageKey = fmt.Sprintf("%s/%s%s", claims.TenantID, video.ID, ext)

	if err := h.store.Save(c.Request.Context(), video.StorageKey, file, header.Size, contentType); err != nil {
		h.logger.Error("video save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	if err := h.videos.Create(c.Request.Context(), video); err != nil {
		_ = h.store.Remove(c.Request.Context(), video.StorageKey)
		h.logger.Error("video record create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	metrics.VideoUploadsTotal.Inc()

	if err := h.pipeline.Dispatch(video.ID, claims.TenantID); err != nil {
		h.logger.Error("analysis dispatch failed", zap.String("video_id", video.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"video": videoResponseFrom(video),
		"analysis": gin.H{
			"state":    entity.JobStateQueued,
			"progress": 0,
		},
	})
}

func (h *videoHandler) List(c *gin.Context) {
	claims := claimsFrom(c)

	filter := port.VideoFilter{}
	if s := c.Query("status"); s != "" {
		status := entity.VideoStatus(s)
		switch status {
		case entity.VideoStatusUploaded, entity.VideoStatusProcessing, entity.VideoStatusProcessed, entity.VideoStatusFailed:
			filter.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}
	if s := c.Query("safety"); s != "" {
		safety := entity.SafetyStatus(s)
		switch safety {
		case entity.SafetyStatusUnknown, entity.SafetyStatusSafe, entity.SafetyStatusFlagged:
			filter.Safety = &safety
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid safety filter"})
			return
		}
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 && limit <= 200 {
		filter.Limit = limit
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be in [1,200]"})
		return
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && offset >= 0 {
		filter.Offset = offset
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be >= 0"})
		return
	}

	// Members only see their own uploads; admins see the whole tenant.
	if claims.Role != entity.RoleAdmin {
		owner := claims.UserID
		filter.OwnerID = &owner
	}

	videos, err := h.videos.List(c.Request.Context(), claims.TenantID, filter)
	if err != nil {
		h.logger.Error("video list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}

	out := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoResponseFrom(v))
	}
	c.JSON(http.StatusOK, gin.H{"videos": out})
}

func (h *videoHandler) Get(c *gin.Context) {
	video, ok := h.fetchAuthorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, videoResponseFrom(video))
}

func (h *videoHandler) Delete(c *gin.Context) {
	claims := claimsFrom(c)
	video, ok := h.fetchAuthorized(c)
	if !ok {
		return
	}

	if _, running := h.pipeline.JobSnapshot(video.ID); running {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis in progress"})
		return
	}

	if err := h.videos.Delete(c.Request.Context(), claims.TenantID, video.ID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		h.logger.Error("video delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	if err := h.store.Remove(c.Request.Context(), video.StorageKey); err != nil {
		h.logger.Warn("object cleanup failed", zap.String("key", video.StorageKey), zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// Stream serves the video file with range support for seekable playback.
func (h *videoHandler) Stream(c *gin.Context) {
	video, ok := h.fetchAuthorized(c)
	if !ok {
		return
	}

	path, err := h.store.Resolve(c.Request.Context(), video.StorageKey)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video file missing"})
			return
		}
		h.logger.Error("video resolve failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming failed"})
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.logger.Error("video open failed", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming failed"})
		return
	}
	defer f.Close()

	c.Header("Content-Type", video.ContentType)
	http.ServeContent(c.Writer, c.Request, video.OriginalName, video.UpdatedAt, f)
}

// Analysis returns the live job snapshot when a run is in flight, otherwise
// a terminal view derived from the video record.
func (h *videoHandler) Analysis(c *gin.Context) {
	video, ok := h.fetchAuthorized(c)
	if !ok {
		return
	}

	resp := analysisResponse{
		VideoID:         video.ID,
		VideoStatus:     string(video.Status),
		SafetyStatus:    string(video.SafetyStatus),
		DurationSeconds: video.DurationSeconds,
		Error:           video.ErrorMessage,
	}

	if job, running := h.pipeline.JobSnapshot(video.ID); running {
		resp.State = string(job.State)
		resp.Progress = job.Progress
		c.JSON(http.StatusOK, resp)
		return
	}

	switch video.Status {
	case entity.VideoStatusProcessed:
		resp.State = string(entity.JobStateCompleted)
		resp.Progress = 100
	case entity.VideoStatusFailed:
		resp.State = string(entity.JobStateFailed)
		resp.Progress = 100
	default:
		// No run recorded: either never analyzed or lost to a restart.
		resp.State = "none"
	}
	c.JSON(http.StatusOK, resp)
}

// Analyze re-triggers the pipeline for an existing video. The registry
// rejects a second run while one is already in flight.
func (h *videoHandler) Analyze(c *gin.Context) {
	claims := claimsFrom(c)
	video, ok := h.fetchAuthorized(c)
	if !ok {
		return
	}

	if err := h.pipeline.Dispatch(video.ID, claims.TenantID); err != nil {
		if errors.Is(err, usecase.ErrAnalysisRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "analysis already running"})
			return
		}
		h.logger.Error("analysis dispatch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"video_id": video.ID,
		"state":    entity.JobStateQueued,
		"progress": 0,
	})
}

// fetchAuthorized loads the requested video and enforces the access rule:
// admins reach any tenant video, members only their own.
func (h *videoHandler) fetchAuthorized(c *gin.Context) (*entity.Video, bool) {
	claims := claimsFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return nil, false
	}

	video, err := h.videos.FindByID(c.Request.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return nil, false
		}
		h.logger.Error("video lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}

	if claims.Role != entity.RoleAdmin && video.OwnerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}

	return video, true
}
