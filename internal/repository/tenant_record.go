package repository

import (
	"errors"
	"time"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// ErrIncompleteTenancy means a stored row has some but not all tenancy fields.
var ErrIncompleteTenancy = errors.New("stored tenancy is incomplete")

// TenantRecord is the persisted shape of a user row. Tenancy columns are
// nullable and read as-is, so read models can inspect stored data without
// going through the aggregate.
type TenantRecord struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	PasswordHash  string      `json:"-"`
	Role          domain.Role `json:"role"`
	Active        bool        `json:"isActive"`
	UnitID        *string     `json:"departmentId,omitempty"`
	ContractStart *time.Time  `json:"contractStartDate,omitempty"`
	ContractEnd   *time.Time  `json:"contractEndDate,omitempty"`
	Version       int64       `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// RecordFromTenant flattens the aggregate into its stored shape.
func RecordFromTenant(t *domain.Tenant) TenantRecord {
	rec := TenantRecord{
		ID:           t.ID,
		Name:         t.Name,
		Email:        t.Email,
		Phone:        t.Phone,
		PasswordHash: t.PasswordHash,
		Role:         t.Role,
		Active:       t.Active,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if a, ok := t.Assignment(); ok {
		unitID, start, end := a.UnitID, a.ContractStart, a.ContractEnd
		rec.UnitID = &unitID
		rec.ContractStart = &start
		rec.ContractEnd = &end
	}
	return rec
}

// ToTenant rebuilds the aggregate. A row holding only part of a tenancy is
// rejected rather than repaired.
func (r TenantRecord) ToTenant() (*domain.Tenant, error) {
	t := domain.NewTenant(r.Account())
	t.Version = r.Version

	switch {
	case r.UnitID == nil && r.ContractStart == nil && r.ContractEnd == nil:
	case r.UnitID != nil && r.ContractStart != nil && r.ContractEnd != nil:
		t.Tenancy = domain.Assigned{UnitID: *r.UnitID, ContractStart: *r.ContractStart, ContractEnd: *r.ContractEnd}
	default:
		return nil, ErrIncompleteTenancy
	}
	return t, nil
}

// Account returns the user fields of the row, ignoring its tenancy columns.
func (r TenantRecord) Account() domain.User {
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
