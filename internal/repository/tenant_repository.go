package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// TenantRepository defines persistence access for user accounts and their tenancy.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*domain.Tenant, error)
	// Update writes the tenant only if its stored version still equals
	// tenant.Version, then advances tenant.Version. A stale version yields
	// ErrVersionConflict, a missing row pgx.ErrNoRows.
	Update(ctx context.Context, tenant *domain.Tenant) error
	GetTenancyRecord(ctx context.Context, id string) (*TenantRecord, error)
	ListAssigned(ctx context.Context) ([]TenantRecord, error)
}

type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository returns a Postgres-backed implementation.
func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepository{pool: pool}
}

const tenantColumns = `id, name, email, phone, password_hash, role, is_active,
        department_id, contract_start_date, contract_end_date, version, created_at, updated_at`

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, role, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, version, created_at, updated_at`

	return conn(ctx, r.pool).QueryRow(ctx, query,
		tenant.Name,
		tenant.Email,
		tenant.Phone,
		tenant.PasswordHash,
		tenant.Role,
		tenant.Active,
	).Scan(&tenant.ID, &tenant.Version, &tenant.CreatedAt, &tenant.UpdatedAt)
}

func (r *tenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	rec, err := r.GetTenancyRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.ToTenant()
}

func (r *tenantRepository) FindByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM users WHERE email=$1`

	rec, err := scanTenantRecord(conn(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}
	return rec.ToTenant()
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        UPDATE users SET name=$1, email=$2, phone=$3, role=$4, is_active=$5,
            department_id=$6, contract_start_date=$7, contract_end_date=$8,
            version=version+1, updated_at=$9
        WHERE id=$10 AND version=$11
        RETURNING version`

	rec := RecordFromTenant(tenant)
	q := conn(ctx, r.pool)
	var next int64
	err := q.QueryRow(ctx, query,
		rec.Name,
		rec.Email,
		rec.Phone,
		rec.Role,
		rec.Active,
		rec.UnitID,
		rec.ContractStart,
		rec.ContractEnd,
		rec.UpdatedAt,
		rec.ID,
		rec.Version,
	).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, rec.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	if err != nil {
		return err
	}
	tenant.Version = next
	return nil
}

func (r *tenantRepository) GetTenancyRecord(ctx context.Context, id string) (*TenantRecord, error) {
	query := `SELECT ` + tenantColumns + ` FROM users WHERE id=$1`

	rec, err := scanTenantRecord(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *tenantRepository) ListAssigned(ctx context.Context) ([]TenantRecord, error) {
	query := `SELECT ` + tenantColumns + ` FROM users
        WHERE department_id IS NOT NULL ORDER BY contract_end_date, id`

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TenantRecord
	for rows.Next() {
		rec, err := scanTenantRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Email,
		&rec.Phone,
		&rec.PasswordHash,
		&rec.Role,
		&rec.Active,
		&rec.UnitID,
		&rec.ContractStart,
		&rec.ContractEnd,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}
