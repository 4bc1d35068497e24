package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/persistence"
)

const departmentCachePrefix = "department:"

// UnitCacheInvalidator is implemented by unit repositories that cache reads.
// Callers invalidate after their transaction commits, since a read racing the
// still-open transaction can repopulate the cache with the old row.
type UnitCacheInvalidator interface {
	InvalidateUnit(ctx context.Context, unitID string)
}

type cachedDepartmentRepository struct {
	inner  DepartmentRepository
	cache  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDepartmentRepository caches unit reads in Redis and drops the cached
// copy on every occupancy write. Cache failures fall through to inner.
func NewCachedDepartmentRepository(inner DepartmentRepository, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger) DepartmentRepository {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &cachedDepartmentRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedDepartmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	key := departmentCachePrefix + id
	var dept domain.Department
	err := r.cache.GetJSON(ctx, key, &dept)
	if err == nil {
		return &dept, nil
	}
	if !errors.Is(err, persistence.ErrCacheMiss) {
		r.logger.Warn("department cache read failed", zap.String("unit_id", id), zap.Error(err))
	}

	fresh, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, key, fresh, r.ttl); err != nil {
		r.logger.Warn("department cache write failed", zap.String("unit_id", id), zap.Error(err))
	}
	return fresh, nil
}

func (r *cachedDepartmentRepository) MarkOccupied(ctx context.Context, unitID, tenantID string) error {
	r.evict(ctx, unitID)
	return r.inner.MarkOccupied(ctx, unitID, tenantID)
}

func (r *cachedDepartmentRepository) MarkVacant(ctx context.Context, unitID, tenantID string) (bool, error) {
	r.evict(ctx, unitID)
	return r.inner.MarkVacant(ctx, unitID, tenantID)
}

// InvalidateUnit drops the cached copy of the unit.
func (r *cachedDepartmentRepository) InvalidateUnit(ctx context.Context, unitID string) {
	r.evict(ctx, unitID)
}

func (r *cachedDepartmentRepository) evict(ctx context.Context, unitID string) {
	if err := r.cache.Delete(ctx, departmentCachePrefix+unitID); err != nil {
		r.logger.Warn("department cache evict failed", zap.String("unit_id", unitID), zap.Error(err))
	}
}
