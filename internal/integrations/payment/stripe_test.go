package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

const testWebhookSecret = "whsec_test"

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	return NewStripeGatewayWithBackend(StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		SuccessURL:    "https://book.example.com/success",
		CancelURL:     "https://book.example.com/cancel",
	}, backend, logger.Discard())
}

func signStripe(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeGateway_InitiateCharge(t *testing.T) {
	var form url.Values
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	charge, err := gw.InitiateCharge(context.Background(), ChargeRequest{
		SessionID:   "sess-1",
		TenantID:    1,
		Amount:      decimal.NewFromInt(30000),
		Currency:    "KRW",
		Description: "Cut",
		Deadline:    time.Now().Add(30 * time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", charge.Reference)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", charge.CheckoutURL)
	assert.Equal(t, "30000", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "krw", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "sess-1", form.Get("metadata[session_id]"))

	expiresAt, err := strconv.ParseInt(form.Get("expires_at"), 10, 64)
	require.NoError(t, err, "expires_at is always sent")
	assert.GreaterOrEqual(t, time.Until(time.Unix(expiresAt, 0)), minCheckoutExpiry)
}

func TestCheckoutExpiry(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     time.Time
	}{
		{name: "default deadline is raised to the minimum", deadline: now.Add(30 * time.Minute), want: now.Add(31 * time.Minute)},
		{name: "zero deadline", deadline: time.Time{}, want: now.Add(31 * time.Minute)},
		{name: "within range is kept", deadline: now.Add(2 * time.Hour), want: now.Add(2 * time.Hour)},
		{name: "beyond a day is capped", deadline: now.Add(48 * time.Hour), want: now.Add(24*time.Hour - time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkoutExpiry(tt.deadline, now))
		})
	}
}

func TestStripeGateway_InitiateChargeError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad currency"}}`))
	})

	_, err := gw.InitiateCharge(context.Background(), ChargeRequest{SessionID: "sess-1", Amount: decimal.NewFromInt(1), Currency: "xxx"})
	assert.ErrorIs(t, err, ErrChargeFailed)
}

func TestStripeGateway_ParseEvent(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_intent":"pi_1","metadata":{"session_id":"sess-1"}}}}`)

	evt, err := gw.ParseEvent(payload, signStripe(payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventChargeSucceeded, evt.Kind)
	assert.Equal(t, "cs_test_1", evt.Reference)
	assert.Equal(t, "pi_1", evt.PaymentIntent)
	assert.Equal(t, "sess-1", evt.SessionID)
}

func TestStripeGateway_ParseEventIgnoresOtherTypes(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	evt, err := gw.ParseEvent(payload, signStripe(payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, evt.Kind)
}

func TestStripeGateway_ParseEventBadSignature(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed"}`)

	_, err := gw.ParseEvent(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeGateway_Refund(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		assert.Equal(t, "pi_1", form.Get("payment_intent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded"}`))
	})

	assert.NoError(t, gw.Refund(context.Background(), "pi_1"))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(30000), MinorUnits(decimal.NewFromInt(30000), "KRW"))
	assert.Equal(t, int64(4550), MinorUnits(decimal.RequireFromString("45.50"), "usd"))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.999"), "eur"))
}
