package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Уровни, с которых взяты действующие настройки
const (
	LevelResource = "resource"
	LevelTenant   = "tenant"
	LevelDefault  = "default"
)

// UpdateScheduleRequest замена настроек одного уровня
// ResourceID == nil - настройки тенанта; Schedule == nil - расписание по умолчанию
type UpdateScheduleRequest struct {
	ResourceID         *int64                 `json:"-"`
	GranularityMinutes int                    `json:"granularityMinutes"`
	Timezone           string                 `json:"timezone"`
	Schedule           *domain.WeeklySchedule `json:"schedule,omitempty"`
}

// ToDomainSettings конвертирует запрос в domain модель
func (r *UpdateScheduleRequest) ToDomainSettings(tenantID int64) *domain.ResourceSettings {
	return &domain.ResourceSettings{
		TenantID:           tenantID,
		ResourceID:         r.ResourceID,
		GranularityMinutes: r.GranularityMinutes,
		Timezone:           r.Timezone,
		Schedule:           r.Schedule,
	}
}

// ScheduleResponse действующие настройки с развёрнутым недельным расписанием
type ScheduleResponse struct {
	ID                 int64                 `json:"id,omitempty"`
	TenantID           int64                 `json:"tenantId"`
	ResourceID         *int64                `json:"resourceId,omitempty"`
	Level              string                `json:"level"`
	GranularityMinutes int                   `json:"granularityMinutes"`
	Timezone           string                `json:"timezone"`
	Schedule           domain.WeeklySchedule `json:"schedule"`
	UpdatedAt          *time.Time            `json:"updatedAt,omitempty"`
}

// FromDomainSettings конвертирует domain модель в DTO
// Битое сохранённое расписание отдаётся так, как его применит расчёт доступности: по умолчанию
func FromDomainSettings(s *domain.ResourceSettings, level string) *ScheduleResponse {
	weekly, _ := domain.ResolveSchedule(s.Schedule)

	timezone := s.Timezone
	if timezone == "" {
		timezone = domain.DefaultTimezone
	}

	resp := &ScheduleResponse{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		ResourceID:         s.ResourceID,
		Level:              level,
		GranularityMinutes: s.GranularityMinutes,
		Timezone:           timezone,
		Schedule:           weekly,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
