package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// UpdateStatusRequest запрос на обновление статуса бронирования
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	TenantID        int64  `json:"tenantId"`
	ResourceID      int64  `json:"resourceId"`
	ServiceID       int64  `json:"serviceId"`
	CustomerID      *int64 `json:"customerId,omitempty"`
	BookingDate     string `json:"bookingDate"` // "2025-10-15"
	StartTime       string `json:"startTime"`   // "10:00"
	DurationMinutes int    `json:"durationMinutes"`
	Status          string `json:"status"`

	Settlement string `json:"settlement"`
	Outcome    string `json:"outcome"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`

	// Денормализованные данные
	ServiceName    string `json:"serviceName"`
	CustomerName   string `json:"customerName"`
	CustomerPhone  string `json:"customerPhone"`
	ContactChannel string `json:"contactChannel"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		TenantID:           b.TenantID,
		ResourceID:         b.ResourceID,
		ServiceID:          b.ServiceID,
		CustomerID:         b.CustomerID,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		Settlement:         string(b.Settlement),
		Outcome:            string(b.Outcome),
		Amount:             b.Amount.StringFixed(2),
		Currency:           b.Currency,
		ServiceName:        b.ServiceName,
		CustomerName:       b.CustomerName,
		CustomerPhone:      b.CustomerPhone,
		ContactChannel:     string(b.ContactChannel),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}
