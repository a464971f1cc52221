package domain

import "time"

// Entitlement prepaid package balance of a customer for one service
type Entitlement struct {
	ID                int64      `json:"id"`
	TenantID          int64      `json:"tenantId"`
	CustomerID        int64      `json:"customerId"`
	PackageID         int64      `json:"packageId"`
	PackageName       string     `json:"packageName"`
	ServiceID         int64      `json:"serviceId"`
	TotalQuantity     int        `json:"totalQuantity"`
	RemainingQuantity int        `json:"remainingQuantity"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}

// Covers returns true if the entitlement can pay for one booking of the service at now
func (e *Entitlement) Covers(serviceID int64, now time.Time) bool {
	if e.ServiceID != serviceID || e.RemainingQuantity <= 0 {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// CustomerIdentity who is booking; CustomerID == 0 for a guest without a customer record
type CustomerIdentity struct {
	CustomerID int64  `json:"customerId,omitempty"`
	Phone      string `json:"phone"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// IsGuest returns true if no customer record was found
func (c CustomerIdentity) IsGuest() bool {
	return c.CustomerID == 0
}
