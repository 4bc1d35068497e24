package events

import (
	"time"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTenancyAssigned   EventType = "tenancy.assigned"
	EventTenancyUnassigned EventType = "tenancy.unassigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TenancyChangedPayload describes the assignment that was created or released.
type TenancyChangedPayload struct {
	UnitID        string    `json:"unit_id"`
	ContractStart time.Time `json:"contract_start_date"`
	ContractEnd   time.Time `json:"contract_end_date"`
	UnitReleased  *bool     `json:"unit_released,omitempty"`
}
