package domain

import "time"

// TenancyAction captures which transition a history entry records.
type TenancyAction string

const (
	TenancyActionAssigned   TenancyAction = "ASSIGNED"
	TenancyActionUnassigned TenancyAction = "UNASSIGNED"
)

// TenancyHistory is an immutable audit trail entry for a tenancy transition.
type TenancyHistory struct {
	ID            string
	TenantID      string
	UnitID        string
	Action        TenancyAction
	ContractStart time.Time
	ContractEnd   time.Time
	ActorID       *string
	CreatedAt     time.Time
}
