package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// StateName identifies a booking session state on the wire
type StateName string

const (
	StateIdentity         StateName = "identity"
	StateServiceSelect    StateName = "service_select"
	StateResourceSelect   StateName = "resource_select"
	StateSlotSelect       StateName = "slot_select"
	StateContactCapture   StateName = "contact_capture"
	StateSettlementChoice StateName = "settlement_choice"
	StateAwaitingPayment  StateName = "awaiting_payment"
	StateCommitted        StateName = "committed"
	StateBlocked          StateName = "blocked"
	StateAbandoned        StateName = "abandoned"
)

var ErrUnknownState = errors.New("unknown session state")

// SessionState closed set of booking session states; each variant carries only the data valid for it
type SessionState interface {
	Name() StateName
	Terminal() bool
	sessionState()
}

// IdentityState waiting for the customer's phone number
type IdentityState struct{}

// ServiceSelectState identity resolved and eligible
type ServiceSelectState struct {
	Customer     CustomerIdentity `json:"customer"`
	Entitlements []Entitlement    `json:"entitlements,omitempty"`
}

// ServiceChoice selected service snapshot
type ServiceChoice struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"durationMinutes"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Covered         bool            `json:"covered"`
}

type ResourceSelectState struct {
	ServiceSelectState
	Service ServiceChoice `json:"service"`
}

// ResourceChoice selected resource snapshot
type ResourceChoice struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SlotSelectState struct {
	ResourceSelectState
	Resource ResourceChoice `json:"resource"`
}

// SlotChoice selected civil date and start time
type SlotChoice struct {
	Date      string           `json:"date"`
	StartTime types.TimeString `json:"startTime"`
}

// ParsedDate returns the slot date as midnight UTC
func (s SlotChoice) ParsedDate() (time.Time, error) {
	return time.Parse(DateFormat, s.Date)
}

type ContactCaptureState struct {
	SlotSelectState
	Slot SlotChoice `json:"slot"`
}

// SettlementChoiceState contact captured; Options lists the legal settlement methods
type SettlementChoiceState struct {
	ContactCaptureState
	Contact Contact            `json:"contact"`
	Options []SettlementMethod `json:"options"`
}

// Allows reports whether method is among the legal options
func (s *SettlementChoiceState) Allows(method SettlementMethod) bool {
	for _, m := range s.Options {
		if m == method {
			return true
		}
	}
	return false
}

// Without returns options minus method
func (s *SettlementChoiceState) Without(method SettlementMethod) []SettlementMethod {
	out := make([]SettlementMethod, 0, len(s.Options))
	for _, m := range s.Options {
		if m != method {
			out = append(out, m)
		}
	}
	return out
}

// PendingCharge gateway charge waiting for out-of-band confirmation
type PendingCharge struct {
	Reference   string          `json:"reference"`
	CheckoutURL string          `json:"checkoutUrl"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Deadline    time.Time       `json:"deadline"`
}

type AwaitingPaymentState struct {
	SettlementChoiceState
	Charge PendingCharge `json:"charge"`
}

type CommittedState struct {
	BookingID int64             `json:"bookingId"`
	Outcome   SettlementOutcome `json:"outcome"`
	Reference string            `json:"reference,omitempty"`
}

type BlockedState struct{}

// Abandon reasons
const (
	AbandonIdleTimeout       = "idle_timeout"
	AbandonCancelled         = "cancelled"
	AbandonSettlementFailure = "settlement_failure"
	AbandonPaymentTimeout    = "payment_timeout"
	AbandonIneligible        = "ineligible"
)

type AbandonedState struct {
	Reason string `json:"reason"`
}

func (IdentityState) Name() StateName         { return StateIdentity }
func (ServiceSelectState) Name() StateName    { return StateServiceSelect }
func (ResourceSelectState) Name() StateName   { return StateResourceSelect }
func (SlotSelectState) Name() StateName       { return StateSlotSelect }
func (ContactCaptureState) Name() StateName   { return StateContactCapture }
func (SettlementChoiceState) Name() StateName { return StateSettlementChoice }
func (AwaitingPaymentState) Name() StateName  { return StateAwaitingPayment }
func (CommittedState) Name() StateName        { return StateCommitted }
func (BlockedState) Name() StateName          { return StateBlocked }
func (AbandonedState) Name() StateName        { return StateAbandoned }

func (IdentityState) Terminal() bool         { return false }
func (ServiceSelectState) Terminal() bool    { return false }
func (ResourceSelectState) Terminal() bool   { return false }
func (SlotSelectState) Terminal() bool       { return false }
func (ContactCaptureState) Terminal() bool   { return false }
func (SettlementChoiceState) Terminal() bool { return false }
func (AwaitingPaymentState) Terminal() bool  { return false }
func (CommittedState) Terminal() bool        { return true }
func (BlockedState) Terminal() bool          { return true }
func (AbandonedState) Terminal() bool        { return true }

func (IdentityState) sessionState()         {}
func (ServiceSelectState) sessionState()    {}
func (ResourceSelectState) sessionState()   {}
func (SlotSelectState) sessionState()       {}
func (ContactCaptureState) sessionState()   {}
func (SettlementChoiceState) sessionState() {}
func (AwaitingPaymentState) sessionState()  {}
func (CommittedState) sessionState()        {}
func (BlockedState) sessionState()          {}
func (AbandonedState) sessionState()        {}

// Session ephemeral booking conversation of one customer with one tenant
type Session struct {
	ID        string
	TenantID  int64
	State     SessionState
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transition moves the session to next and clears the previous step error
func (s *Session) Transition(next SessionState, now time.Time) {
	s.State = next
	s.LastError = ""
	s.UpdatedAt = now
}

// Reject moves the session to next keeping code as the reason shown to the customer
func (s *Session) Reject(next SessionState, code string, now time.Time) {
	s.State = next
	s.LastError = code
	s.UpdatedAt = now
}

// IdleExpired true when a non-terminal session saw no activity for idle
// A session waiting for payment is governed by the charge deadline instead
func (s *Session) IdleExpired(now time.Time, idle time.Duration) bool {
	if s.State.Terminal() {
		return false
	}
	if _, ok := s.State.(AwaitingPaymentState); ok {
		return false
	}
	return now.Sub(s.UpdatedAt) > idle
}

type sessionEnvelope struct {
	ID        string          `json:"id"`
	TenantID  int64           `json:"tenantId"`
	State     StateName       `json:"state"`
	Data      json.RawMessage `json:"data"`
	LastError string          `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	if s.State == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownState)
	}
	data, err := json.Marshal(s.State)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sessionEnvelope{
		ID:        s.ID,
		TenantID:  s.TenantID,
		State:     s.State.Name(),
		Data:      data,
		LastError: s.LastError,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
}

func (s *Session) UnmarshalJSON(b []byte) error {
	var env sessionEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	state, err := decodeState(env.State, env.Data)
	if err != nil {
		return err
	}

	*s = Session{
		ID:        env.ID,
		TenantID:  env.TenantID,
		State:     state,
		LastError: env.LastError,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}
	return nil
}

func decodeState(name StateName, data json.RawMessage) (SessionState, error) {
	switch name {
	case StateIdentity:
		return IdentityState{}, nil
	case StateServiceSelect:
		return decodeInto[ServiceSelectState](data)
	case StateResourceSelect:
		return decodeInto[ResourceSelectState](data)
	case StateSlotSelect:
		return decodeInto[SlotSelectState](data)
	case StateContactCapture:
		return decodeInto[ContactCaptureState](data)
	case StateSettlementChoice:
		return decodeInto[SettlementChoiceState](data)
	case StateAwaitingPayment:
		return decodeInto[AwaitingPaymentState](data)
	case StateCommitted:
		return decodeInto[CommittedState](data)
	case StateBlocked:
		return BlockedState{}, nil
	case StateAbandoned:
		return decodeInto[AbandonedState](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
}

func decodeInto[T SessionState](data json.RawMessage) (SessionState, error) {
	var st T
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %T: %w", st, err)
	}
	return st, nil
}
