package advance_session

import (
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// AdvanceRequest HTTP request model; поля заполняются в зависимости от шага
type AdvanceRequest struct {
	Phone      string `json:"phone,omitempty"`
	ServiceID  int64  `json:"serviceId,omitempty"`
	ResourceID int64  `json:"resourceId,omitempty"`
	Date       string `json:"date,omitempty"`
	StartTime  string `json:"startTime,omitempty"`
	Name       string `json:"name,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ToStepInput конвертирует HTTP request в ввод шага
func (r *AdvanceRequest) ToStepInput() booking_session.StepInput {
	return booking_session.StepInput{
		Phone:      r.Phone,
		ServiceID:  r.ServiceID,
		ResourceID: r.ResourceID,
		Date:       r.Date,
		StartTime:  types.TimeString(r.StartTime),
		Name:       r.Name,
		Channel:    r.Channel,
		Email:      r.Email,
	}
}
