package booking_session

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Config параметры жизненного цикла сессии
type Config struct {
	IdleTimeout       time.Duration // Неактивная сессия прерывается после этого интервала
	TerminalRetention time.Duration // Сколько хранить завершённую сессию, чтобы клиент увидел итог
	CommitLockTTL     time.Duration
	ChargeDeadline    time.Duration // Срок оплаты выставленного счёта
	EventRetention    time.Duration // Сколько помнить обработанные события шлюза
	PhoneMinDigits    int
	PhoneMaxDigits    int
	PhonePrefix       string // Допустимый префикс нормализованного номера, пустой - любой
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		IdleTimeout:       15 * time.Minute,
		TerminalRetention: 10 * time.Minute,
		CommitLockTTL:     30 * time.Second,
		ChargeDeadline:    30 * time.Minute,
		EventRetention:    72 * time.Hour,
		PhoneMinDigits:    10,
		PhoneMaxDigits:    11,
		PhonePrefix:       "01",
	}
}

// StepInput ввод клиента для текущего шага; используются только поля этого шага
type StepInput struct {
	Phone      string           `json:"phone,omitempty"`
	ServiceID  int64            `json:"serviceId,omitempty"`
	ResourceID int64            `json:"resourceId,omitempty"`
	Date       string           `json:"date,omitempty"`
	StartTime  types.TimeString `json:"startTime,omitempty"`
	Name       string           `json:"name,omitempty"`
	Channel    string           `json:"channel,omitempty"`
	Email      string           `json:"email,omitempty"`
}

// CommitRequest выбор способа расчёта и согласие клиента
type CommitRequest struct {
	Method  domain.SettlementMethod `json:"method"`
	Consent bool                    `json:"consent"`
}

// View то, что клиент видит о своей сессии
// Заполняются только поля, допустимые в текущем состоянии
type View struct {
	ID        string           `json:"id"`
	State     domain.StateName `json:"state"`
	LastError string           `json:"lastError,omitempty"`

	Customer     *CustomerView     `json:"customer,omitempty"`
	Entitlements []EntitlementView `json:"entitlements,omitempty"`

	Services  []ServiceOption        `json:"services,omitempty"`
	Service   *domain.ServiceChoice  `json:"service,omitempty"`
	Resources []ResourceOption       `json:"resources,omitempty"`
	Resource  *domain.ResourceChoice `json:"resource,omitempty"`
	Slots     *SlotsView             `json:"slots,omitempty"`
	Slot      *domain.SlotChoice     `json:"slot,omitempty"`
	Contact   *domain.Contact        `json:"contact,omitempty"`

	Options  []domain.SettlementMethod `json:"options,omitempty"`
	Checkout *CheckoutView             `json:"checkout,omitempty"`
	Booking  *BookingView              `json:"booking,omitempty"`
	Reason   string                    `json:"reason,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

type CustomerView struct {
	Name  string `json:"name,omitempty"`
	Guest bool   `json:"guest"`
}

type EntitlementView struct {
	PackageName       string     `json:"packageName"`
	ServiceID         int64      `json:"serviceId"`
	RemainingQuantity int        `json:"remainingQuantity"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}

type ServiceOption struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"durationMinutes"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Covered         bool            `json:"covered"`
}

type ResourceOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SlotsView сетка слотов выбранного ресурса на запрошенную дату
type SlotsView struct {
	Date     string             `json:"date"`
	Timezone string             `json:"timezone,omitempty"`
	Closed   bool               `json:"closed"`
	Times    []types.TimeString `json:"times"`
}

type CheckoutView struct {
	Reference string          `json:"reference"`
	URL       string          `json:"url"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Deadline  time.Time       `json:"deadline"`
}

type BookingView struct {
	ID      int64                    `json:"id"`
	Outcome domain.SettlementOutcome `json:"outcome"`
}
