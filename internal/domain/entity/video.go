package entity

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusUploaded   VideoStatus = "uploaded"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusProcessed  VideoStatus = "processed"
	VideoStatusFailed     VideoStatus = "failed"
)

type SafetyStatus string

const (
	SafetyStatusUnknown SafetyStatus = "unknown"
	SafetyStatusSafe    SafetyStatus = "safe"
	SafetyStatusFlagged SafetyStatus = "flagged"
)

type Video struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	OwnerID         uuid.UUID
	Title           string
	OriginalName    string
	StorageKey      string
	ContentType     string
	SizeBytes       int64
	DurationSeconds float64
	Status          VideoStatus
	SafetyStatus    SafetyStatus
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewVideo(tenantID, ownerID uuid.UUID, title, originalName, storageKey, contentType string, sizeBytes int64) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:           uuid.New(),
		TenantID:     tenantID,
		OwnerID:      ownerID,
		Title:        title,
		OriginalName: originalName,
		StorageKey:   storageKey,
		ContentType:  contentType,
		SizeBytes:    sizeBytes,
		Status:       VideoStatusUploaded,
		SafetyStatus: SafetyStatusUnknown,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
