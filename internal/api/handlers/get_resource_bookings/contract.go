package get_resource_bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

type BookingService interface {
	ListForResourceDay(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
