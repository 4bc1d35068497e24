package domain

import (
	"math"
	"time"
)

// ExpiringSoonThresholdDays is the horizon, in whole days, within which an
// active contract is reported as expiring soon.
const ExpiringSoonThresholdDays = 30

const day = 24 * time.Hour

// ContractWindow is the time-dependent health of a contract. It is derived on
// demand and never persisted.
type ContractWindow struct {
	IsActive        bool `json:"isActive"`
	DaysUntilExpiry int  `json:"daysUntilExpiry"`
	IsExpiringSoon  bool `json:"isExpiringSoon"`
}

// ComputeContractWindow derives the contract window for [start, end] as seen at now.
// Both bounds are inclusive. DaysUntilExpiry rounds partial days up, so a
// contract ending later today still has one day left.
func ComputeContractWindow(start, end, now time.Time) ContractWindow {
	days := int(math.Ceil(float64(end.Sub(now)) / float64(day)))
	return ContractWindow{
		IsActive:        !now.Before(start) && !now.After(end),
		DaysUntilExpiry: days,
		IsExpiringSoon:  days > 0 && days <= ExpiringSoonThresholdDays,
	}
}
