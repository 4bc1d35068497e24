package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// DepartmentRepository manages unit reads and occupancy writes. Unit
// catalogue management lives outside this service.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	// MarkOccupied claims an available, active unit for tenantID. It returns
	// ErrUnitUnavailable when the unit exists but cannot be claimed.
	MarkOccupied(ctx context.Context, unitID, tenantID string) error
	// MarkVacant frees the unit if tenantID holds it and reports whether it did.
	MarkVacant(ctx context.Context, unitID, tenantID string) (bool, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, number, floor, rooms, bathrooms, area_m2::float8, monthly_rent::float8, description,
            is_available, tenant_id, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Number,
		&dept.Floor,
		&dept.Rooms,
		&dept.Bathrooms,
		&dept.AreaM2,
		&dept.MonthlyRent,
		&dept.Description,
		&dept.IsAvailable,
		&dept.TenantID,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) MarkOccupied(ctx context.Context, unitID, tenantID string) error {
	const query = `
        UPDATE departments SET is_available=FALSE, tenant_id=$1, updated_at=NOW()
        WHERE id=$2 AND is_available=TRUE AND is_active=TRUE`
	q := conn(ctx, r.pool)
	cmd, err := q.Exec(ctx, query, tenantID, unitID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM departments WHERE id=$1)`, unitID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrUnitUnavailable
}

func (r *departmentRepository) MarkVacant(ctx context.Context, unitID, tenantID string) (bool, error) {
	const query = `
        UPDATE departments SET is_available=TRUE, tenant_id=NULL, updated_at=NOW()
        WHERE id=$1 AND tenant_id=$2`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, unitID, tenantID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// IsNotFound reports whether err is a missing-row error from any repository.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
