package domain

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// ResourceSettings scheduling configuration of a resource
// Supports hierarchical configuration:
// 1. Resource-specific (tenant_id, resource_id)
// 2. Tenant-wide (tenant_id, NULL)
type ResourceSettings struct {
	ID                 int64
	TenantID           int64
	ResourceID         *int64 // NULL = settings for all resources of the tenant
	GranularityMinutes int
	Timezone           string
	Schedule           *WeeklySchedule // nil = default schedule
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultResourceSettings used when nothing is configured for the tenant
func DefaultResourceSettings(tenantID int64) *ResourceSettings {
	return &ResourceSettings{
		TenantID:           tenantID,
		GranularityMinutes: DefaultGranularityMinutes,
		Timezone:           DefaultTimezone,
	}
}

// IsTenantWide returns true for settings shared by all resources of a tenant
func (s *ResourceSettings) IsTenantWide() bool {
	return s.ResourceID == nil
}

// Location loads the IANA timezone the resource operates in
func (s *ResourceSettings) Location() (*time.Location, error) {
	name := s.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ValidGranularity 5 <= g <= 60 and g divides an hour evenly
func ValidGranularity(g int) bool {
	return g >= MinGranularityMinutes && g <= MaxGranularityMinutes && 60%g == 0
}
