// Package memory provides in-process repository implementations with the same
// conflict semantics as the Postgres ones. It backs tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/repository"
)

// Store holds users, departments and history behind one lock.
type Store struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	users       map[string]repository.TenantRecord
	departments map[string]domain.Department
	history     []domain.TenancyHistory
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]repository.TenantRecord),
		departments: make(map[string]domain.Department),
	}
}

type txKey struct{}

// RunInTx serializes transactions and restores the pre-transaction snapshot
// when fn fails.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	users, departments, history := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.users, s.departments, s.history = users, departments, history
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[string]repository.TenantRecord, map[string]domain.Department, []domain.TenancyHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make(map[string]repository.TenantRecord, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	departments := make(map[string]domain.Department, len(s.departments))
	for k, v := range s.departments {
		departments[k] = v
	}
	history := append([]domain.TenancyHistory(nil), s.history...)
	return users, departments, history
}

// PutRecord stores a raw user row as-is, including rows a real database
// would reject. Tests use it to seed inconsistent data.
func (s *Store) PutRecord(rec repository.TenantRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.users[rec.ID] = rec
}

// PutDepartment stores a unit.
func (s *Store) PutDepartment(dept domain.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[dept.ID] = dept
}

// Department returns the stored unit.
func (s *Store) Department(id string) (domain.Department, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	return d, ok
}

// Tenants returns the tenant repository view.
func (s *Store) Tenants() repository.TenantRepository { return tenants{s} }

// Departments returns the department repository view.
func (s *Store) Departments() repository.DepartmentRepository { return departments{s} }

// History returns the tenancy history repository view.
func (s *Store) History() repository.TenancyHistoryRepository { return history{s} }

type tenants struct{ s *Store }

func (r tenants) Create(_ context.Context, tenant *domain.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tenant.Version = 1
	tenant.CreatedAt, tenant.UpdatedAt = now, now
	r.s.users[tenant.ID] = repository.RecordFromTenant(tenant)
	return nil
}

func (r tenants) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	rec, err := r.GetTenancyRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.ToTenant()
}

func (r tenants) FindByEmail(_ context.Context, email string) (*domain.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.users {
		if rec.Email == email {
			return rec.ToTenant()
		}
	}
	return nil, pgx.ErrNoRows
}

func (r tenants) Update(_ context.Context, tenant *domain.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[tenant.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != tenant.Version {
		return repository.ErrVersionConflict
	}
	rec := repository.RecordFromTenant(tenant)
	rec.PasswordHash = stored.PasswordHash
	rec.CreatedAt = stored.CreatedAt
	rec.Version = stored.Version + 1
	r.s.users[tenant.ID] = rec
	tenant.Version = rec.Version
	return nil
}

func (r tenants) GetTenancyRecord(_ context.Context, id string) (*repository.TenantRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rec, nil
}

func (r tenants) ListAssigned(_ context.Context) ([]repository.TenantRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []repository.TenantRecord
	for _, rec := range r.s.users {
		if rec.UnitID != nil {
			result = append(result, rec)
		}
	}
	// Same order as the SQL query: contract end ascending, missing ends last, then id.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].ContractEnd, result[j].ContractEnd
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type departments struct{ s *Store }

func (r departments) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (r departments) MarkOccupied(_ context.Context, unitID, tenantID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[unitID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !d.IsAvailable || !d.IsActive {
		return repository.ErrUnitUnavailable
	}
	d.IsAvailable = false
	d.TenantID = &tenantID
	d.UpdatedAt = time.Now().UTC()
	r.s.departments[unitID] = d
	return nil
}

func (r departments) MarkVacant(_ context.Context, unitID, tenantID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[unitID]
	if !ok || d.TenantID == nil || *d.TenantID != tenantID {
		return false, nil
	}
	d.IsAvailable = true
	d.TenantID = nil
	d.UpdatedAt = time.Now().UTC()
	r.s.departments[unitID] = d
	return true, nil
}

type history struct{ s *Store }

func (r history) Create(_ context.Context, entry *domain.TenancyHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r history) ListByTenant(_ context.Context, tenantID string) ([]domain.TenancyHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TenancyHistory
	for _, h := range r.s.history {
		if h.TenantID == tenantID {
			result = append(result, h)
		}
	}
	return result, nil
}
