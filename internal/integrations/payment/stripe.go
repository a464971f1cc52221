package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe принимает expires_at от 30 минут до 24 часов от момента создания сессии
const (
	minCheckoutExpiry    = 30 * time.Minute
	maxCheckoutExpiry    = 24 * time.Hour
	checkoutExpiryMargin = time.Minute
)

// StripeGateway оплата через Stripe Checkout
type StripeGateway struct {
	sessions      *session.Client
	refunds       *refund.Client
	webhookSecret string
	successURL    string
	cancelURL     string
	log           Logger
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

func NewStripeGateway(cfg StripeConfig, log Logger) *StripeGateway {
	return NewStripeGatewayWithBackend(cfg, stripe.GetBackend(stripe.APIBackend), log)
}

// NewStripeGatewayWithBackend позволяет направить запросы на другой backend (тесты, stripe-mock)
func NewStripeGatewayWithBackend(cfg StripeConfig, backend stripe.Backend, log Logger) *StripeGateway {
	return &StripeGateway{
		sessions:      &session.Client{B: backend, Key: cfg.SecretKey},
		refunds:       &refund.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		log:           log,
	}
}

// InitiateCharge создаёт Checkout Session; ссылка на оплату уходит клиенту
func (g *StripeGateway) InitiateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	currency := strings.ToLower(req.Currency)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.SessionID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(MinorUnits(req.Amount, currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataSessionID, req.SessionID)
	params.AddMetadata(MetadataTenantID, strconv.FormatInt(req.TenantID, 10))

	params.ExpiresAt = stripe.Int64(checkoutExpiry(req.Deadline, time.Now()).Unix())

	cs, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe checkout session: %v", ErrChargeFailed, err)
	}

	g.log.Info("Stripe checkout session %s created for booking session %s", cs.ID, req.SessionID)
	return &Charge{Reference: cs.ID, CheckoutURL: cs.URL}, nil
}

// checkoutExpiry приводит дедлайн оплаты к допустимому для Stripe окну
// Ссылка на оплату не должна жить дольше, чем сессия её ждёт
func checkoutExpiry(deadline, now time.Time) time.Time {
	earliest := now.Add(minCheckoutExpiry + checkoutExpiryMargin)
	latest := now.Add(maxCheckoutExpiry - checkoutExpiryMargin)

	switch {
	case deadline.Before(earliest):
		return earliest
	case deadline.After(latest):
		return latest
	default:
		return deadline
	}
}

// ParseEvent проверяет подпись Stripe-Signature и извлекает событие Checkout Session
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var kind EventKind
	switch evt.Type {
	case "checkout.session.completed":
		kind = EventChargeSucceeded
	case "checkout.session.expired":
		kind = EventChargeExpired
	default:
		return &Event{ID: evt.ID, Kind: EventIgnored}, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: event %s: %v", ErrInvalidEvent, evt.ID, err)
	}

	out := &Event{
		ID:        evt.ID,
		Kind:      kind,
		Reference: cs.ID,
		SessionID: cs.Metadata[MetadataSessionID],
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntent = cs.PaymentIntent.ID
	}
	return out, nil
}

// Refund возвращает оплату, если слот был потерян, пока клиент платил
func (g *StripeGateway) Refund(ctx context.Context, paymentIntent string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntent)}
	params.Context = ctx

	r, err := g.refunds.New(params)
	if err != nil {
		return fmt.Errorf("%w: payment_intent=%s: %v", ErrRefundFailed, paymentIntent, err)
	}

	g.log.Info("Stripe refund %s issued for payment_intent=%s status=%s", r.ID, paymentIntent, r.Status)
	return nil
}
