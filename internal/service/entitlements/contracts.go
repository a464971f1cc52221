package entitlements

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// EntitlementRepository пакеты услуг клиентов
type EntitlementRepository interface {
	ListActive(ctx context.Context, tenantID, customerID int64, now time.Time) ([]domain.Entitlement, error)
}

// BlockListRepository чёрный список тенанта
type BlockListRepository interface {
	IsListed(ctx context.Context, tenantID int64, phone string) (bool, error)
}

// NoShowCounter история неявок клиента
type NoShowCounter interface {
	CountNoShows(ctx context.Context, tenantID int64, phone string) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
