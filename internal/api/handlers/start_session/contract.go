package start_session

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

type SessionUseCase interface {
	Start(ctx context.Context, tenantID int64) (*booking_session.View, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
