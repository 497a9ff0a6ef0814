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

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, created_at, updated_at)
		VALUES ($1,$2,$3,$4)`

	_, err := r.pool.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return port.ErrConflict
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	query := `SELECT id, name, created_at, updated_at FROM tenants WHERE id=$1`

	tenant := &entity.Tenant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return tenant, nil
}

func (r *TenantRepository) Update(ctx context.Context, tenant *entity.Tenant) error {
	query := `UPDATE tenants SET name=$2, updated_at=$3 WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query, tenant.ID, tenant.Name, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}
