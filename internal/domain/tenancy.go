package domain

import (
	"errors"
	"time"
)

// MinimumLeaseDuration is the shortest contract a tenant can be assigned under.
const MinimumLeaseDuration = 30 * day

// Assignment rejections, checked in the order they are declared.
var (
	ErrRoleNotEligible      = errors.New("only users with the tenant role can be assigned a department")
	ErrAlreadyAssigned      = errors.New("tenant already has a department assigned")
	ErrInvalidContractRange = errors.New("contract end date must be after the start date")
	ErrPastStartDate        = errors.New("contract start date cannot be in the past")
	ErrMinimumDuration      = errors.New("contract must last at least 30 days")
	ErrNotAssigned          = errors.New("tenant has no department assigned")
)

// TenancyState is either Unassigned or Assigned. The interface is sealed so a
// tenant can never hold a unit id without both contract dates.
type TenancyState interface {
	isTenancyState()
}

// Unassigned is the initial tenancy state of every tenant.
type Unassigned struct{}

// Assigned binds a tenant to a unit for a contract period.
type Assigned struct {
	UnitID        string
	ContractStart time.Time
	ContractEnd   time.Time
}

func (Unassigned) isTenancyState() {}
func (Assigned) isTenancyState()   {}

// Window returns the contract window of the assignment at now.
func (a Assigned) Window(now time.Time) ContractWindow {
	return ComputeContractWindow(a.ContractStart, a.ContractEnd, now)
}

// ValidateContractDates applies the date rules shared by the entity and the
// request boundary: ordering, start not before today, minimum duration.
func ValidateContractDates(start, end, now time.Time) error {
	if !end.After(start) {
		return ErrInvalidContractRange
	}
	if calendarDate(start).Before(calendarDate(now)) {
		return ErrPastStartDate
	}
	if end.Sub(start) < MinimumLeaseDuration {
		return ErrMinimumDuration
	}
	return nil
}

// calendarDate drops the time of day and zone, keeping the date as written in
// t's own location, so a date-only start and the server clock compare by day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
