package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const defaultSendTimeout = 10 * time.Second

// Notifier отправляет подтверждения бронирования в фоне
// Ошибки доставки только логируются и никогда не влияют на фиксацию брони
type Notifier struct {
	email   EmailSender
	sms     SMSSender
	log     Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(email EmailSender, sms SMSSender, log Logger) *Notifier {
	return &Notifier{
		email:   email,
		sms:     sms,
		log:     log,
		timeout: defaultSendTimeout,
	}
}

// BookingConfirmed ставит отправку подтверждения в фон и сразу возвращается
func (n *Notifier) BookingConfirmed(booking domain.Booking) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.deliver(ctx, booking); err != nil {
			n.log.Error("Failed to notify booking_id=%d via %s: %v", booking.ID, booking.ContactChannel, err)
			return
		}
		n.log.Info("Booking confirmation sent, booking_id=%d channel=%s", booking.ID, booking.ContactChannel)
	}()
}

// Wait дожидается фоновых отправок (graceful shutdown, тесты)
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, booking domain.Booking) error {
	text := confirmationText(booking)

	switch booking.ContactChannel {
	case domain.ChannelEmail:
		if booking.CustomerEmail == nil || *booking.CustomerEmail == "" {
			return ErrNoRecipient
		}
		if n.email == nil {
			return fmt.Errorf("%w: email", ErrNotConfigured)
		}
		return n.email.Send(ctx, EmailMessage{
			To:      *booking.CustomerEmail,
			ToName:  booking.CustomerName,
			Subject: fmt.Sprintf("Booking confirmed: %s", booking.ServiceName),
			Body:    text,
		})
	default:
		if booking.CustomerPhone == "" {
			return ErrNoRecipient
		}
		if n.sms == nil {
			return fmt.Errorf("%w: sms", ErrNotConfigured)
		}
		return n.sms.Send(ctx, SMSMessage{
			To:      booking.CustomerPhone,
			Channel: string(booking.ContactChannel),
			Text:    text,
		})
	}
}

func confirmationText(b domain.Booking) string {
	text := fmt.Sprintf("%s, your %s is booked for %s at %s.",
		b.CustomerName, b.ServiceName, b.BookingDate.Format(domain.DateFormat), b.StartTime)
	if b.Status == domain.StatusPendingPayment {
		text += " Payment is due at the visit."
	}
	return text
}
