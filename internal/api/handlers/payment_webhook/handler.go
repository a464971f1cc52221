package payment_webhook

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

const (
	maxPayloadBytes = 64 << 10

	// StripeSignatureHeader заголовок подписи Stripe
	StripeSignatureHeader = "Stripe-Signature"
	// SignatureHeader заголовок подписи фейкового шлюза
	SignatureHeader = "X-Payment-Signature"

	msgInvalidBody = "некорректное тело события"
)

type Handler struct {
	events PaymentEventHandler
	logger Logger
}

func NewHandler(events PaymentEventHandler, logger Logger) *Handler {
	return &Handler{
		events: events,
		logger: logger,
	}
}

// Handle POST /api/v1/payments/webhook
// Ответ не 2xx заставляет шлюз повторить доставку
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := handlers.ReadBody(r, maxPayloadBytes)
	if err != nil {
		h.logger.Warn("POST /payments/webhook - Invalid body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	signature := r.Header.Get(StripeSignatureHeader)
	if signature == "" {
		signature = r.Header.Get(SignatureHeader)
	}

	if err := h.events.HandlePaymentEvent(r.Context(), payload, signature); err != nil {
		if errors.Is(err, booking_session.ErrInvalidPaymentEvent) {
			h.logger.Warn("POST /payments/webhook - Rejected event: %v", err)
		} else {
			h.logger.Error("POST /payments/webhook - Failed to process event: %v", err)
		}
		handlers.RespondSessionError(w, err, nil)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
