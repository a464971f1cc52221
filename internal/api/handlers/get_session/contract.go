package get_session

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

type SessionUseCase interface {
	Get(ctx context.Context, tenantID int64, sessionID string) (*booking_session.View, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
