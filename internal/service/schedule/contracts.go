package schedule

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SettingsRepository интерфейс репозитория настроек расписания
type SettingsRepository interface {
	GetSettingsWithHierarchy(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error)
	Upsert(ctx context.Context, settings *domain.ResourceSettings) (*domain.ResourceSettings, error)
}

// ResourceCatalog проверка существования сотрудника
type ResourceCatalog interface {
	GetResource(ctx context.Context, tenantID, resourceID int64) (*domain.Resource, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
