package update_schedule

import (
	"fmt"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// UpdateScheduleRequest HTTP request model
type UpdateScheduleRequest struct {
	GranularityMinutes int                    `json:"granularityMinutes"`
	Timezone           string                 `json:"timezone"`
	Schedule           *domain.WeeklySchedule `json:"schedule,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateScheduleRequest) ToServiceRequest(resourceID *int64) *models.UpdateScheduleRequest {
	return &models.UpdateScheduleRequest{
		ResourceID:         resourceID,
		GranularityMinutes: r.GranularityMinutes,
		Timezone:           r.Timezone,
		Schedule:           r.Schedule,
	}
}

func parseResourceID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid resourceId %q", raw)
	}
	return &id, nil
}
