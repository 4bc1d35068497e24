package domain

import "time"

// Tenant is a user aggregate that may hold at most one tenancy assignment.
// Version is the optimistic concurrency token compared on every write.
type Tenant struct {
	User
	Tenancy TenancyState
	Version int64
}

// NewTenant returns an unassigned tenant for the given account.
func NewTenant(user User) *Tenant {
	return &Tenant{User: user, Tenancy: Unassigned{}}
}

// Assignment returns the current assignment, if any.
func (t *Tenant) Assignment() (Assigned, bool) {
	a, ok := t.Tenancy.(Assigned)
	return a, ok
}

// IsAssigned reports whether the tenant currently occupies a unit.
func (t *Tenant) IsAssigned() bool {
	_, ok := t.Assignment()
	return ok
}

// Assign binds the tenant to unitID for [start, end]. Preconditions are checked
// in a fixed order and the first failure is returned; on failure the tenant is
// left untouched.
func (t *Tenant) Assign(unitID string, start, end, now time.Time) error {
	if t.Role != RoleTenant {
		return ErrRoleNotEligible
	}
	if t.IsAssigned() {
		return ErrAlreadyAssigned
	}
	if err := ValidateContractDates(start, end, now); err != nil {
		return err
	}
	t.Tenancy = Assigned{UnitID: unitID, ContractStart: start, ContractEnd: end}
	t.UpdatedAt = now
	return nil
}

// Unassign releases the tenant's unit and returns the assignment that was
// cleared so the caller can free the unit.
func (t *Tenant) Unassign(now time.Time) (Assigned, error) {
	prev, ok := t.Assignment()
	if !ok {
		return Assigned{}, ErrNotAssigned
	}
	t.Tenancy = Unassigned{}
	t.UpdatedAt = now
	return prev, nil
}

// ContractStatus reports the contract window at now. ok is false when the
// tenant is unassigned.
func (t *Tenant) ContractStatus(now time.Time) (window ContractWindow, ok bool) {
	a, ok := t.Assignment()
	if !ok {
		return ContractWindow{}, false
	}
	return a.Window(now), true
}
