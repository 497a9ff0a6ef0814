package entity

import "github.com/google/uuid"

// ProgressEvent is the outbound message published to the tenant progress
// channel while an analysis run advances.
type ProgressEvent struct {
	VideoID      uuid.UUID    `json:"video_id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	Status       JobState     `json:"status"`
	Progress     int          `json:"progress"`
	Message      string       `json:"message,omitempty"`
	SafetyStatus SafetyStatus `json:"safety_status,omitempty"`
	Duration     float64      `json:"duration_seconds,omitempty"`
	Error        string       `json:"error,omitempty"`
}
