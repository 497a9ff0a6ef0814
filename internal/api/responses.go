package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

type tenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func tenantResponseFrom(t *entity.Tenant) tenantResponse {
	return tenantResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponseFrom(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type videoResponse struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	OriginalName    string    `json:"original_name"`
	ContentType     string    `json:"content_type"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds float64   `json:"duration_seconds"`
	Status          string    `json:"status"`
	SafetyStatus    string    `json:"safety_status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func videoResponseFrom(v *entity.Video) videoResponse {
	return videoResponse{
		ID:              v.ID,
		OwnerID:         v.OwnerID,
		Title:           v.Title,
		OriginalName:    v.OriginalName,
		ContentType:     v.ContentType,
		SizeBytes:       v.SizeBytes,
		DurationSeconds: v.DurationSeconds,
		Status:          string(v.Status),
		SafetyStatus:    string(v.SafetyStatus),
		ErrorMessage:    v.ErrorMessage,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

type analysisResponse struct {
	VideoID         uuid.UUID `json:"video_id"`
	State           string    `json:"state"`
	Progress        int       `json:"progress"`
	VideoStatus     string    `json:"video_status"`
	SafetyStatus    string    `json:"safety_status"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
}
