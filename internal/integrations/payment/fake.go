package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway платёжный шлюз для разработки: ссылка ведёт на внутренний URL,
// подтверждение присылается тем же вебхуком с HMAC-подписью
// Включается только конфигурацией, в production не используется
type FakeGateway struct {
	publicBaseURL string
	secret        string
	log           Logger

	mu       sync.Mutex
	refunded []string
}

func NewFakeGateway(publicBaseURL, secret string, log Logger) *FakeGateway {
	return &FakeGateway{
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		secret:        secret,
		log:           log,
	}
}

// FakeEvent тело события фейкового шлюза
type FakeEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Reference string    `json:"reference"`
	SessionID string    `json:"sessionId"`
}

func (g *FakeGateway) InitiateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: fake checkout requires session id", ErrChargeFailed)
	}
	parsed, err := url.Parse(g.publicBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: fake checkout requires absolute public base url", ErrChargeFailed)
	}

	reference := "fake_" + uuid.NewString()
	return &Charge{
		Reference:   reference,
		CheckoutURL: fmt.Sprintf("%s/payments/fake/%s", g.publicBaseURL, reference),
	}, nil
}

// Sign подпись тела события: hex(HMAC-SHA256(secret, payload))
func (g *FakeGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *FakeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	if !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var evt FakeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}

	switch evt.Kind {
	case EventChargeSucceeded, EventChargeExpired:
	default:
		return &Event{ID: evt.ID, Kind: EventIgnored}, nil
	}

	return &Event{
		ID:            evt.ID,
		Kind:          evt.Kind,
		Reference:     evt.Reference,
		PaymentIntent: evt.Reference,
		SessionID:     evt.SessionID,
	}, nil
}

func (g *FakeGateway) Refund(_ context.Context, paymentIntent string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, paymentIntent)
	g.log.Warn("Fake refund recorded for %s", paymentIntent)
	return nil
}

// Refunded возвращает все выполненные возвраты
func (g *FakeGateway) Refunded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.refunded...)
}
