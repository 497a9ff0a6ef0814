package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
)

const videoColumns = `
	id, tenant_id, owner_id, title, original_name, storage_key, content_type,
	size_bytes, duration_seconds, status, safety_status, error_message,
	created_at, updated_at`

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func (r *VideoRepository) Create(ctx context.Context, video *entity.Video) error {
	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		video.ID, video.TenantID, video.OwnerID, video.Title, video.OriginalName,
		video.StorageKey, video.ContentType, video.SizeBytes, video.DurationSeconds,
		string(video.Status), string(video.SafetyStatus), video.ErrorMessage,
		video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return port.ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id=$1 AND tenant_id=$2`

	return scanVideo(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *VideoRepository) List(ctx context.Context, tenantID uuid.UUID, filter port.VideoFilter) ([]*entity.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE tenant_id=$1`
	args := []any{tenantID}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id=$%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.Safety != nil {
		args = append(args, string(*filter.Safety))
		query += fmt.Sprintf(" AND safety_status=$%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := []*entity.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// UpdateStatus applies a partial update; nil fields keep the stored value.
func (r *VideoRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, update port.VideoStatusUpdate) (*entity.Video, error) {
	query := `
		UPDATE videos SET
			status           = COALESCE($3, status),
			safety_status    = COALESCE($4, safety_status),
			duration_seconds = COALESCE($5, duration_seconds),
			error_message    = COALESCE($6, error_message),
			updated_at       = now()
		WHERE id=$1 AND tenant_id=$2
		RETURNING ` + videoColumns

	var status, safety *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}
	if update.SafetyStatus != nil {
		s := string(*update.SafetyStatus)
		safety = &s
	}

	return scanVideo(r.pool.QueryRow(ctx, query,
		id, tenantID, status, safety, update.DurationSeconds, update.ErrorMessage,
	))
}

func (r *VideoRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func scanVideo(row pgx.Row) (*entity.Video, error) {
	video := &entity.Video{}
	var status, safety string
	err := row.Scan(
		&video.ID, &video.TenantID, &video.OwnerID, &video.Title, &video.OriginalName,
		&video.StorageKey, &video.ContentType, &video.SizeBytes, &video.DurationSeconds,
		&status, &safety, &video.ErrorMessage, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}
	video.Status = entity.VideoStatus(status)
	video.SafetyStatus = entity.SafetyStatus(safety)
	return video, nil
}
