package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// TenancyHistoryRepository stores the tenancy audit trail.
type TenancyHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TenancyHistory) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.TenancyHistory, error)
}

type tenancyHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTenancyHistoryRepository builds repository.
func NewTenancyHistoryRepository(pool *pgxpool.Pool) TenancyHistoryRepository {
	return &tenancyHistoryRepository{pool: pool}
}

func (r *tenancyHistoryRepository) Create(ctx context.Context, entry *domain.TenancyHistory) error {
	const query = `
        INSERT INTO tenancy_history (id, tenant_id, department_id, action, contract_start_date, contract_end_date, actor_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.UnitID,
		entry.Action,
		entry.ContractStart,
		entry.ContractEnd,
		entry.ActorID,
		entry.CreatedAt,
	)
	return err
}

func (r *tenancyHistoryRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenancyHistory, error) {
	const query = `
        SELECT id, tenant_id, department_id, action, contract_start_date, contract_end_date, actor_id, created_at
        FROM tenancy_history WHERE tenant_id=$1 ORDER BY created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TenancyHistory
	for rows.Next() {
		var entry domain.TenancyHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.UnitID,
			&entry.Action,
			&entry.ContractStart,
			&entry.ContractEnd,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
