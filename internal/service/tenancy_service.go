package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/events"
	"github.com/spec-kit/tenancy-service/internal/observability"
	"github.com/spec-kit/tenancy-service/internal/repository"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

var tracer = otel.Tracer("github.com/spec-kit/tenancy-service/internal/service")

// TenancyService binds tenants to units and releases them.
type TenancyService struct {
	tenants    repository.TenantRepository
	units      repository.DepartmentRepository
	history    repository.TenancyHistoryRepository
	tx         repository.Transactor
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TenancyDependencies bundles repositories and collaborators.
type TenancyDependencies struct {
	TenantRepo  repository.TenantRepository
	UnitRepo    repository.DepartmentRepository
	HistoryRepo repository.TenancyHistoryRepository
	Transactor  repository.Transactor
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewTenancyService creates the service.
func NewTenancyService(deps TenancyDependencies) *TenancyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TenancyService{
		tenants:    deps.TenantRepo,
		units:      deps.UnitRepo,
		history:    deps.HistoryRepo,
		tx:         deps.Transactor,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// AssignTenancy binds a tenant to a unit under a dated contract. The tenant
// write and the unit occupancy write commit together or not at all.
func (s *TenancyService) AssignTenancy(ctx context.Context, in AssignTenancyInput) (_ *domain.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "TenancyService.AssignTenancy", trace.WithAttributes(
		attribute.String("tenant.id", in.TenantID),
		attribute.String("unit.id", in.UnitID),
	))
	defer func() { s.finish(ctx, span, "assign", err) }()

	now := s.now()
	if err := validateAssignInput(in, now); err != nil {
		return nil, err
	}
	details := map[string]any{"tenant_id": in.TenantID, "unit_id": in.UnitID}

	tenant, err := s.loadTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.Active {
		return nil, apperrors.NewConflict("tenant account is inactive", details)
	}
	if tenant.Role != domain.RoleTenant {
		return nil, apperrors.NewConflict("only users with the tenant role can be assigned a department", details)
	}
	if tenant.IsAssigned() {
		return nil, apperrors.NewConflict("tenant already has a department assigned; unassign it first", details)
	}

	unit, err := s.units.GetByID(ctx, in.UnitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", details)
		}
		return nil, apperrors.MapError(err)
	}
	if !unit.IsActive || !unit.IsAvailable {
		return nil, apperrors.NewConflict("department is not available", details)
	}

	if err := tenant.Assign(in.UnitID, in.ContractStart, in.ContractEnd, now); err != nil {
		return nil, apperrors.WrapConflict("tenancy assignment rejected", err, details)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tenants.Update(ctx, tenant); err != nil {
			return writeError(err, "tenant", details)
		}
		if err := s.units.MarkOccupied(ctx, in.UnitID, tenant.ID); err != nil {
			return writeError(err, "department", details)
		}
		return s.recordHistory(ctx, tenant.ID, in.ActorID, domain.TenancyActionAssigned, in.UnitID, in.ContractStart, in.ContractEnd, now)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateUnit(ctx, in.UnitID)

	s.publish(ctx, events.EventTenancyAssigned, tenant.ID, in.ActorID, now, events.TenancyChangedPayload{
		UnitID:        in.UnitID,
		ContractStart: in.ContractStart,
		ContractEnd:   in.ContractEnd,
	})
	return tenant, nil
}

// UnassignTenancy releases the tenant's unit and marks it vacant in the same
// transaction.
func (s *TenancyService) UnassignTenancy(ctx context.Context, in UnassignTenancyInput) (_ *domain.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "TenancyService.UnassignTenancy", trace.WithAttributes(
		attribute.String("tenant.id", in.TenantID),
	))
	defer func() { s.finish(ctx, span, "unassign", err) }()

	if err := validateUnassignInput(in); err != nil {
		return nil, err
	}
	details := map[string]any{"tenant_id": in.TenantID}

	tenant, err := s.loadTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsAssigned() {
		return nil, apperrors.NewConflict("tenant has no department assigned", details)
	}

	now := s.now()
	prev, err := tenant.Unassign(now)
	if err != nil {
		return nil, apperrors.WrapConflict("tenancy release rejected", err, details)
	}
	details["unit_id"] = prev.UnitID

	var released bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tenants.Update(ctx, tenant); err != nil {
			return writeError(err, "tenant", details)
		}
		var err error
		released, err = s.units.MarkVacant(ctx, prev.UnitID, tenant.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		return s.recordHistory(ctx, tenant.ID, in.ActorID, domain.TenancyActionUnassigned, prev.UnitID, prev.ContractStart, prev.ContractEnd, now)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateUnit(ctx, prev.UnitID)
	if !released {
		observability.LoggerFromContext(ctx, s.logger).Warn("released unit was not recorded as occupied by tenant",
			zap.String("tenant_id", tenant.ID),
			zap.String("unit_id", prev.UnitID))
	}

	s.publish(ctx, events.EventTenancyUnassigned, tenant.ID, in.ActorID, now, events.TenancyChangedPayload{
		UnitID:        prev.UnitID,
		ContractStart: prev.ContractStart,
		ContractEnd:   prev.ContractEnd,
		UnitReleased:  &released,
	})
	return tenant, nil
}

// ListHistory returns the tenancy audit trail of a tenant, oldest first.
func (s *TenancyService) ListHistory(ctx context.Context, tenantID string) ([]domain.TenancyHistory, error) {
	if _, err := s.tenants.GetTenancyRecord(ctx, tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": tenantID})
		}
		return nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TenancyService) loadTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": id})
		}
		if errors.Is(err, repository.ErrIncompleteTenancy) {
			observability.LoggerFromContext(ctx, s.logger).Error("stored tenancy is incomplete", zap.String("tenant_id", id))
			return nil, apperrors.WrapConflict("stored tenancy is incomplete; repair the record before changing it", err,
				map[string]any{"tenant_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return tenant, nil
}

// invalidateUnit runs after commit so no reader can cache the pre-commit row.
func (s *TenancyService) invalidateUnit(ctx context.Context, unitID string) {
	if inv, ok := s.units.(repository.UnitCacheInvalidator); ok {
		inv.InvalidateUnit(ctx, unitID)
	}
}

func (s *TenancyService) recordHistory(ctx context.Context, tenantID, actorID string, action domain.TenancyAction, unitID string, start, end, now time.Time) error {
	entry := &domain.TenancyHistory{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		UnitID:        unitID,
		Action:        action,
		ContractStart: start,
		ContractEnd:   end,
		CreatedAt:     now,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TenancyService) publish(ctx context.Context, eventType events.EventType, tenantID, actorID string, now time.Time, payload events.TenancyChangedPayload) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TenantID:  tenantID,
		Timestamp: now,
		Payload:   payload,
	}
	if actorID != "" {
		event.Actor.UserID = &actorID
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		observability.LoggerFromContext(ctx, s.logger).Warn("tenancy event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("tenant_id", tenantID),
			zap.Error(err))
	}
}

func (s *TenancyService) finish(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()
	result := "ok"
	if err != nil {
		de := apperrors.ToDomainError(err)
		result = de.Code
		span.SetStatus(codes.Error, de.Message)
		if de.HTTPStatus >= 500 {
			span.RecordError(err)
			observability.LoggerFromContext(ctx, s.logger).Error("tenancy operation failed",
				zap.String("operation", operation),
				zap.Error(err))
		}
	}
	s.metrics.RecordTenancyOperation(operation, result)
}

// writeError translates repository write failures inside a transaction.
func writeError(err error, resource string, details map[string]any) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.WrapConflict("tenant was modified by another request; reload and retry", err, details)
	case errors.Is(err, repository.ErrUnitUnavailable):
		return apperrors.WrapConflict("department is not available", err, details)
	default:
		return apperrors.MapError(err)
	}
}
