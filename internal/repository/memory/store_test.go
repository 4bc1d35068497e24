package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/repository"
)

func seedTenant(t *testing.T, s *Store) *domain.Tenant {
	t.Helper()
	tenant := domain.NewTenant(domain.User{Name: "Ana", Email: "ana@example.com", Role: domain.RoleTenant, Active: true})
	require.NoError(t, s.Tenants().Create(context.Background(), tenant))
	return tenant
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seeded := seedTenant(t, s)

	first, err := s.Tenants().FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	second, err := s.Tenants().FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	first.Name = "Ana M."
	require.NoError(t, s.Tenants().Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Name = "Ana T."
	assert.ErrorIs(t, s.Tenants().Update(ctx, second), repository.ErrVersionConflict)

	stored, err := s.Tenants().FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana M.", stored.Name)
}

func TestUpdateMissingTenant(t *testing.T) {
	s := NewStore()
	ghost := domain.NewTenant(domain.User{ID: "missing"})
	assert.ErrorIs(t, s.Tenants().Update(context.Background(), ghost), pgx.ErrNoRows)
}

func TestRunInTxRollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	tenant := seedTenant(t, s)
	s.PutDepartment(domain.Department{ID: "U-12", IsAvailable: true, IsActive: true})
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, tenant.Assign("U-12", time.Now().Add(24*time.Hour), time.Now().Add(60*24*time.Hour), time.Now()))
		require.NoError(t, s.Tenants().Update(ctx, tenant))
		require.NoError(t, s.Departments().MarkOccupied(ctx, "U-12", tenant.ID))
		require.NoError(t, s.History().Create(ctx, &domain.TenancyHistory{TenantID: tenant.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := s.Tenants().FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAssigned())
	dept, _ := s.Department("U-12")
	assert.True(t, dept.IsAvailable)
	entries, _ := s.History().ListByTenant(ctx, tenant.ID)
	assert.Empty(t, entries)
}

func TestMarkOccupiedIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutDepartment(domain.Department{ID: "U-1", IsAvailable: true, IsActive: true})
	s.PutDepartment(domain.Department{ID: "U-2", IsAvailable: true, IsActive: false})

	require.NoError(t, s.Departments().MarkOccupied(ctx, "U-1", "t-1"))
	assert.ErrorIs(t, s.Departments().MarkOccupied(ctx, "U-1", "t-2"), repository.ErrUnitUnavailable)
	assert.ErrorIs(t, s.Departments().MarkOccupied(ctx, "U-2", "t-2"), repository.ErrUnitUnavailable)
	assert.ErrorIs(t, s.Departments().MarkOccupied(ctx, "U-9", "t-2"), pgx.ErrNoRows)

	released, err := s.Departments().MarkVacant(ctx, "U-1", "t-2")
	require.NoError(t, err)
	assert.False(t, released)
	released, err = s.Departments().MarkVacant(ctx, "U-1", "t-1")
	require.NoError(t, err)
	assert.True(t, released)
}

func TestIncompleteRecordDoesNotLoad(t *testing.T) {
	s := NewStore()
	unit := "U-3"
	s.PutRecord(repository.TenantRecord{ID: "t-9", Role: domain.RoleTenant, Active: true, UnitID: &unit})

	_, err := s.Tenants().FindByID(context.Background(), "t-9")
	assert.ErrorIs(t, err, repository.ErrIncompleteTenancy)
}

func TestListAssignedOrdersByContractEnd(t *testing.T) {
	s := NewStore()
	unit := "U-1"
	end := func(y int, m time.Month) *time.Time {
		d := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return &d
	}
	s.PutRecord(repository.TenantRecord{ID: "a", UnitID: &unit, ContractEnd: end(2026, time.March)})
	s.PutRecord(repository.TenantRecord{ID: "b", UnitID: &unit})
	s.PutRecord(repository.TenantRecord{ID: "c", UnitID: &unit, ContractEnd: end(2025, time.July)})
	s.PutRecord(repository.TenantRecord{ID: "d", UnitID: &unit, ContractEnd: end(2026, time.March)})
	s.PutRecord(repository.TenantRecord{ID: "e"})

	records, err := s.Tenants().ListAssigned(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"c", "a", "d", "b"}, ids)
}
