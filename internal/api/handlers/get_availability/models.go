package get_availability

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date               string          `json:"date"`
	ResourceID         int64           `json:"resourceId"`
	Timezone           string          `json:"timezone,omitempty"`
	GranularityMinutes int             `json:"granularityMinutes,omitempty"`
	DurationMinutes    int             `json:"durationMinutes"`
	Closed             bool            `json:"closed"`
	Degraded           bool            `json:"degraded,omitempty"`
	Slots              []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime string `json:"startTime"`
	Available bool   `json:"available"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailabilityResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime: slot.StartTime.String(),
			Available: slot.Available,
		}
	}

	return &AvailabilityResponse{
		Date:               resp.Date.Format(domain.DateFormat),
		ResourceID:         resp.ResourceID,
		Timezone:           resp.Timezone,
		GranularityMinutes: resp.GranularityMinutes,
		DurationMinutes:    resp.DurationMinutes,
		Closed:             resp.Closed,
		Degraded:           resp.Degraded,
		Slots:              slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(tenantID, resourceID int64, dateStr, durationStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		TenantID:        tenantID,
		ResourceID:      resourceID,
		Date:            date,
		DurationMinutes: duration,
	}, nil
}
