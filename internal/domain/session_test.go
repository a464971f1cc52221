package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_JSONRoundTripKeepsVariant(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	state := SettlementChoiceState{
		ContactCaptureState: ContactCaptureState{
			SlotSelectState: SlotSelectState{
				ResourceSelectState: ResourceSelectState{
					ServiceSelectState: ServiceSelectState{
						Customer:     CustomerIdentity{CustomerID: 7, Phone: "01012345678"},
						Entitlements: []Entitlement{{ID: 3, ServiceID: 10, RemainingQuantity: 1, TotalQuantity: 5}},
					},
					Service: ServiceChoice{ID: 10, Name: "Cut", DurationMinutes: 60, Price: decimal.NewFromInt(35000), Currency: "krw", Covered: true},
				},
				Resource: ResourceChoice{ID: 2, Name: "Mina"},
			},
			Slot: SlotChoice{Date: "2026-03-09", StartTime: "14:00"},
		},
		Contact: Contact{Name: "Kim", Phone: "01012345678", Channel: ChannelSMS},
		Options: []SettlementMethod{SettlementRedemption, SettlementCharge, SettlementDeferred},
	}
	s := Session{ID: "s-1", TenantID: 1, State: state, CreatedAt: now, UpdatedAt: now}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(raw, &decoded))

	got, ok := decoded.State.(SettlementChoiceState)
	require.True(t, ok, "state decoded as %T", decoded.State)
	assert.Equal(t, int64(7), got.Customer.CustomerID)
	assert.Equal(t, "14:00", got.Slot.StartTime.String())
	assert.True(t, got.Service.Price.Equal(decimal.NewFromInt(35000)))
	assert.True(t, got.Allows(SettlementRedemption))
	assert.Equal(t, []SettlementMethod{SettlementCharge, SettlementDeferred}, got.Without(SettlementRedemption))
}

func TestSession_UnmarshalUnknownState(t *testing.T) {
	var s Session
	err := json.Unmarshal([]byte(`{"id":"x","state":"teleported","data":{}}`), &s)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestSession_IdleExpired(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	idle := 15 * time.Minute

	s := &Session{State: SlotSelectState{}, UpdatedAt: now.Add(-16 * time.Minute)}
	assert.True(t, s.IdleExpired(now, idle))

	s.State = AwaitingPaymentState{}
	assert.False(t, s.IdleExpired(now, idle))

	s.State = CommittedState{BookingID: 1}
	assert.False(t, s.IdleExpired(now, idle))
}

func TestBooking_StatusRules(t *testing.T) {
	b := &Booking{Status: StatusPendingPayment}
	assert.True(t, b.IsActive())
	assert.True(t, b.CanBeCancelled())
	assert.True(t, b.CanTransitionTo(StatusConfirmed))

	b.Status = StatusCancelled
	assert.False(t, b.IsActive())
	assert.False(t, b.CanTransitionTo(StatusConfirmed))

	_, ok := ParseBookingStatus("no_show")
	assert.True(t, ok)
	_, ok = ParseBookingStatus("cancelled_by_user")
	assert.False(t, ok)
}
