package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	Update(ctx context.Context, tenant *entity.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*entity.User, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// VideoFilter narrows List results. Nil fields are ignored.
type VideoFilter struct {
	OwnerID *uuid.UUID
	Status  *entity.VideoStatus
	Safety  *entity.SafetyStatus
	Limit   int
	Offset  int
}

// VideoStatusUpdate is a partial update of the mutable analysis fields on a
// video record. Nil fields keep their current value.
type VideoStatusUpdate struct {
	Status          *entity.VideoStatus
	SafetyStatus    *entity.SafetyStatus
	DurationSeconds *float64
	ErrorMessage    *string
}

type VideoRepository interface {
	Create(ctx context.Context, video *entity.Video) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Video, error)
	List(ctx context.Context, tenantID uuid.UUID, filter VideoFilter) ([]*entity.Video, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, update VideoStatusUpdate) (*entity.Video, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
