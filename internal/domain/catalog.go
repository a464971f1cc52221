package domain

import "github.com/shopspring/decimal"

// Service bookable service offered by a tenant
type Service struct {
	ID              int64
	TenantID        int64
	Name            string
	DurationMinutes int
	Price           decimal.Decimal
	Currency        string
	IsActive        bool
}

// Resource staff member (or room) that performs services
type Resource struct {
	ID         int64
	TenantID   int64
	Name       string
	ServiceIDs []int64
	IsActive   bool
}

// CanPerform returns true if the resource is capable of the service
func (r *Resource) CanPerform(serviceID int64) bool {
	if !r.IsActive {
		return false
	}
	for _, id := range r.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
