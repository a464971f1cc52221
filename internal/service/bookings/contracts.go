package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, tenantID, id int64, reason string) error
	ListNonCancelled(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*domain.Booking, error)
}

// Refunder возврат оплаты при отмене предоплаченной брони
type Refunder interface {
	Refund(ctx context.Context, paymentIntent string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
