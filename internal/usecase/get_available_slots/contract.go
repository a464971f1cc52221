package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// ListNonCancelled возвращает неотменённые бронирования ресурса на дату
	// Внутри транзакции строки блокируются (FOR UPDATE)
	ListNonCancelled(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*domain.Booking, error)
}

// ScheduleRepository интерфейс репозитория настроек расписания
type ScheduleRepository interface {
	// GetSettingsWithHierarchy возвращает настройки ресурса, а при их отсутствии настройки тенанта
	GetSettingsWithHierarchy(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error)
}

// Metrics счётчик деградаций
type Metrics interface {
	ObserveAvailabilityDegraded(reason string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
