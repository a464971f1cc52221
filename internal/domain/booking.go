package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending        BookingStatus = "pending"
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusNoShow         BookingStatus = "no_show"
)

// SettlementMethod how the customer settles a booking
type SettlementMethod string

const (
	SettlementRedemption SettlementMethod = "redemption"
	SettlementCharge     SettlementMethod = "charge"
	SettlementDeferred   SettlementMethod = "deferred"
)

// SettlementOutcome the recorded result of a commit
type SettlementOutcome string

const (
	OutcomeRedeemedEntitlement SettlementOutcome = "redeemed_entitlement"
	OutcomePaidCharge          SettlementOutcome = "paid_charge"
	OutcomeDeferredPayment     SettlementOutcome = "deferred_payment"
)

// ContactChannel preferred channel for booking notifications
type ContactChannel string

const (
	ChannelSMS   ContactChannel = "sms"
	ChannelEmail ContactChannel = "email"
	ChannelKakao ContactChannel = "kakao"
)

// Contact details captured during the booking session
type Contact struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone"`
	Channel ContactChannel `json:"channel"`
	Email   string         `json:"email,omitempty"`
}

// Booking represents an appointment of one resource for one service
type Booking struct {
	ID         int64
	TenantID   int64
	ResourceID int64
	ServiceID  int64
	CustomerID *int64 // nil для гостя без карточки клиента

	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Status          BookingStatus

	Settlement       SettlementMethod
	Outcome          SettlementOutcome
	EntitlementID    *int64
	PaymentReference *string
	Amount           decimal.Decimal
	Currency         string

	// Denormalized data for history
	ServiceName    string
	CustomerName   string
	CustomerPhone  string
	IdentityPhone  string // phone used at identification, no-shows are counted on it
	ContactChannel ContactChannel
	CustomerEmail  *string
	SessionID      string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking occupies its slot
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusPendingPayment || b.Status == StatusConfirmed
}

// IsCompleted returns true if the booking is completed or was a no-show
func (b *Booking) IsCompleted() bool {
	return b.Status == StatusCompleted || b.Status == StatusNoShow
}

// EndTime returns the exclusive end of the booking
func (b *Booking) EndTime() (types.TimeString, error) {
	return b.StartTime.AddMinutes(b.DurationMinutes)
}

// CanTransitionTo checks status changes made by staff after the booking exists
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case StatusPending, StatusPendingPayment:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusNoShow || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusNoShow || next == StatusCancelled
	default:
		return false
	}
}

// ParseBookingStatus validates a status coming from the outside
func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(s)
	for _, valid := range AllStatuses {
		if status == valid {
			return status, true
		}
	}
	return "", false
}
