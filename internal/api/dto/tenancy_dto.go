package dto

import "time"

// AssignDepartmentRequest payload for binding a tenant to a unit. Dates are
// RFC3339 timestamps or plain YYYY-MM-DD dates.
type AssignDepartmentRequest struct {
	UnitID            string `json:"unitId"`
	ContractStartDate string `json:"contractStartDate"`
	ContractEndDate   string `json:"contractEndDate"`
}

// AssignmentResponse is the tenancy held by a tenant.
type AssignmentResponse struct {
	UnitID            string    `json:"unitId"`
	ContractStartDate time.Time `json:"contractStartDate"`
	ContractEndDate   time.Time `json:"contractEndDate"`
}

// TenantResponse is a tenant account with its current tenancy.
type TenantResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone,omitempty"`
	Role       string              `json:"role"`
	Active     bool                `json:"active"`
	Department *AssignmentResponse `json:"department"`
	Version    int64               `json:"version"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// UnitResponse describes a rentable unit.
type UnitResponse struct {
	ID          string  `json:"id"`
	Number      string  `json:"number"`
	Floor       int     `json:"floor"`
	Rooms       int     `json:"rooms"`
	Bathrooms   int     `json:"bathrooms"`
	AreaM2      float64 `json:"areaM2"`
	MonthlyRent float64 `json:"monthlyRent"`
	Description string  `json:"description,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// ContractInfoResponse carries the stored dates and the window computed at read time.
type ContractInfoResponse struct {
	ContractStartDate time.Time `json:"contractStartDate"`
	ContractEndDate   time.Time `json:"contractEndDate"`
	IsActive          bool      `json:"isActive"`
	DaysUntilExpiry   int       `json:"daysUntilExpiry"`
	IsExpiringSoon    bool      `json:"isExpiringSoon"`
}

// TenantInfoResponse is the tenant slice of the department view.
type TenantInfoResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active"`
}

// TenancyDetailsResponse is returned by the department read endpoints.
type TenancyDetailsResponse struct {
	Unit         UnitResponse         `json:"unit"`
	ContractInfo ContractInfoResponse `json:"contractInfo"`
	TenantInfo   TenantInfoResponse   `json:"tenantInfo"`
}

// TenancyHistoryResponse represents one audit entry.
type TenancyHistoryResponse struct {
	ID                string    `json:"id"`
	UnitID            string    `json:"unitId"`
	Action            string    `json:"action"`
	ContractStartDate time.Time `json:"contractStartDate"`
	ContractEndDate   time.Time `json:"contractEndDate"`
	ActorID           *string   `json:"actorId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}
