package payment

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func TestFakeGateway_InitiateCharge(t *testing.T) {
	gw := NewFakeGateway("https://api.example.com/", "secret", logger.Discard())

	charge, err := gw.InitiateCharge(context.Background(), ChargeRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(charge.Reference, "fake_"))
	assert.Equal(t, "https://api.example.com/payments/fake/"+charge.Reference, charge.CheckoutURL)
}

func TestFakeGateway_RequiresBaseURL(t *testing.T) {
	gw := NewFakeGateway("", "secret", logger.Discard())

	_, err := gw.InitiateCharge(context.Background(), ChargeRequest{SessionID: "sess-1"})
	assert.ErrorIs(t, err, ErrChargeFailed)
}

func TestFakeGateway_ParseEvent(t *testing.T) {
	gw := NewFakeGateway("https://api.example.com", "secret", logger.Discard())
	payload, err := json.Marshal(FakeEvent{ID: "evt_1", Kind: EventChargeSucceeded, Reference: "fake_1", SessionID: "sess-1"})
	require.NoError(t, err)

	evt, err := gw.ParseEvent(payload, gw.Sign(payload))
	require.NoError(t, err)
	assert.Equal(t, "fake_1", evt.Reference)
	assert.Equal(t, EventChargeSucceeded, evt.Kind)

	_, err = gw.ParseEvent(payload, "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestFakeGateway_Refund(t *testing.T) {
	gw := NewFakeGateway("https://api.example.com", "secret", logger.Discard())

	require.NoError(t, gw.Refund(context.Background(), "fake_1"))
	assert.Equal(t, []string{"fake_1"}, gw.Refunded())
}
