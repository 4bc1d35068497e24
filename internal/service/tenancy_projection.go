package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/observability"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

// ContractInfo is the stored contract plus its window at read time.
type ContractInfo struct {
	ContractStart time.Time
	ContractEnd   time.Time
	domain.ContractWindow
}

// TenantInfo is the tenant slice shown next to the unit.
type TenantInfo struct {
	ID     string
	Name   string
	Email  string
	Phone  string
	Active bool
}

// TenancyDetails is the "my department" read model.
type TenancyDetails struct {
	Unit     domain.Department
	Contract ContractInfo
	Tenant   TenantInfo
}

// GetTenancy reads a tenant's current unit and recomputes the contract window
// from the stored dates. It reads the stored record, not the aggregate, and a
// record missing either date is reported as not found.
func (s *TenancyService) GetTenancy(ctx context.Context, tenantID string) (*TenancyDetails, error) {
	ctx, span := tracer.Start(ctx, "TenancyService.GetTenancy", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
	))
	defer span.End()

	details := map[string]any{"tenant_id": tenantID}
	rec, err := s.tenants.GetTenancyRecord(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tenant", details)
		}
		return nil, apperrors.MapError(err)
	}
	if rec.UnitID == nil {
		return nil, apperrors.NewNotFound("department assignment", details)
	}
	details["unit_id"] = *rec.UnitID
	if rec.ContractStart == nil || rec.ContractEnd == nil {
		observability.LoggerFromContext(ctx, s.logger).Error("stored tenancy is missing contract dates",
			zap.String("tenant_id", tenantID),
			zap.String("unit_id", *rec.UnitID))
		return nil, apperrors.NewNotFound("contract dates", details)
	}

	unit, err := s.units.GetByID(ctx, *rec.UnitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", details)
		}
		return nil, apperrors.MapError(err)
	}

	return &TenancyDetails{
		Unit: *unit,
		Contract: ContractInfo{
			ContractStart:  *rec.ContractStart,
			ContractEnd:    *rec.ContractEnd,
			ContractWindow: domain.ComputeContractWindow(*rec.ContractStart, *rec.ContractEnd, s.now()),
		},
		Tenant: TenantInfo{
			ID:     rec.ID,
			Name:   rec.Name,
			Email:  rec.Email,
			Phone:  rec.Phone,
			Active: rec.Active,
		},
	}, nil
}

// ContractReportEntry is one assigned contract and its current window.
type ContractReportEntry struct {
	TenantID      string
	TenantName    string
	UnitID        string
	ContractStart time.Time
	ContractEnd   time.Time
	Window        domain.ContractWindow
}

// ContractReport evaluates every stored assignment at the current time.
// Incomplete records are logged and skipped.
func (s *TenancyService) ContractReport(ctx context.Context) ([]ContractReportEntry, error) {
	recs, err := s.tenants.ListAssigned(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	entries := make([]ContractReportEntry, 0, len(recs))
	for _, rec := range recs {
		if rec.UnitID == nil || rec.ContractStart == nil || rec.ContractEnd == nil {
			s.logger.Warn("skipping incomplete tenancy record", zap.String("tenant_id", rec.ID))
			continue
		}
		entries = append(entries, ContractReportEntry{
			TenantID:      rec.ID,
			TenantName:    rec.Name,
			UnitID:        *rec.UnitID,
			ContractStart: *rec.ContractStart,
			ContractEnd:   *rec.ContractEnd,
			Window:        domain.ComputeContractWindow(*rec.ContractStart, *rec.ContractEnd, now),
		})
	}
	return entries, nil
}
