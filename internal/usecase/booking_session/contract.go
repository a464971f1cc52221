package booking_session

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// SessionStore хранилище сессий, токенов фиксации и ожидающих оплат
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	AcquireCommitLock(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error)
	ReleaseCommitLock(ctx context.Context, sessionID, token string) error
	TrackCharge(ctx context.Context, reference, sessionID string, deadline time.Time, ttl time.Duration) error
	SessionByCharge(ctx context.Context, reference string) (string, error)
	DueCharges(ctx context.Context, now time.Time, limit int) ([]string, error)
	UntrackCharge(ctx context.Context, reference string) error
	MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ForgetEvent(ctx context.Context, eventID string) error
}

// IdentityResolver определяет клиента по телефону; при любой ошибке возвращает гостя
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, tenantID int64, phone string) domain.CustomerIdentity
}

// EntitlementService пакеты клиента и проверка допуска
type EntitlementService interface {
	IsBlocked(ctx context.Context, tenantID int64, phone string) (bool, error)
	EntitlementsFor(ctx context.Context, tenantID int64, customer domain.CustomerIdentity, now time.Time) ([]domain.Entitlement, error)
}

// Catalog услуги и сотрудники тенанта
type Catalog interface {
	ListServices(ctx context.Context, tenantID int64) ([]domain.Service, error)
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
	GetResource(ctx context.Context, tenantID, resourceID int64) (*domain.Resource, error)
	ListResourcesForService(ctx context.Context, tenantID, serviceID int64) ([]domain.Resource, error)
}

// Availability расчёт свободных слотов
type Availability interface {
	Execute(ctx context.Context, req *get_available_slots.Request) (*get_available_slots.Response, error)
	CheckSlot(ctx context.Context, req *get_available_slots.CheckRequest) (bool, error)
}

// BookingRepository запись бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	LockResourceDay(ctx context.Context, resourceID int64, date time.Time) error
}

// EntitlementRepository списание посещений с пакета
type EntitlementRepository interface {
	DecrementIfPositive(ctx context.Context, id int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentGateway платёжный шлюз с подтверждением оплаты вне сессии
type PaymentGateway interface {
	InitiateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error)
	ParseEvent(payload []byte, signature string) (*payment.Event, error)
	Refund(ctx context.Context, paymentIntent string) error
}

// Notifier уведомление клиента о записи, не блокирует фиксацию
type Notifier interface {
	BookingConfirmed(booking domain.Booking)
}

// Metrics метрики переходов и расчётов
type Metrics interface {
	ObserveSessionTransition(state string)
	ObserveSettlement(method, result string)
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
