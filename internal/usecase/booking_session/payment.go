package booking_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/sessionstore"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
)

const expireBatch = 100

// HandlePaymentEvent применяет подписанное событие шлюза к сессии, ожидающей оплаты
// Ошибка означает, что шлюз должен повторить доставку
func (uc *UseCase) HandlePaymentEvent(ctx context.Context, payload []byte, signature string) error {
	if uc.gateway == nil {
		return fmt.Errorf("%w: payment gateway is not configured", ErrInvalidPaymentEvent)
	}

	// 1. Проверка подписи
	evt, err := uc.gateway.ParseEvent(payload, signature)
	if err != nil {
		uc.logger.Warn("PaymentEvent: rejected: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidPaymentEvent, err)
	}
	if evt.Kind == payment.EventIgnored {
		return nil
	}

	// 2. Повторная доставка одного события обрабатывается один раз
	first, err := uc.sessions.MarkEventProcessed(ctx, evt.ID, uc.cfg.EventRetention)
	if err != nil {
		return fmt.Errorf("%w: mark event: %v", ErrUpstreamUnavailable, err)
	}
	if !first {
		uc.logger.Info("PaymentEvent: event %s already processed", evt.ID)
		return nil
	}

	// 3. Применение; при сбое отметка снимается, чтобы повтор шлюза прошёл
	if err := uc.applyPaymentEvent(ctx, evt); err != nil {
		uc.logger.Error("PaymentEvent: failed to apply event %s for charge %s: %v", evt.ID, evt.Reference, err)
		if ferr := uc.sessions.ForgetEvent(context.WithoutCancel(ctx), evt.ID); ferr != nil {
			uc.logger.Warn("PaymentEvent: failed to forget event %s: %v", evt.ID, ferr)
		}
		return err
	}

	return nil
}

func (uc *UseCase) applyPaymentEvent(ctx context.Context, evt *payment.Event) error {
	sessionID, err := uc.sessions.SessionByCharge(ctx, evt.Reference)
	if errors.Is(err, sessionstore.ErrChargeNotFound) {
		sessionID = evt.SessionID
	} else if err != nil {
		return fmt.Errorf("%w: charge lookup: %v", ErrUpstreamUnavailable, err)
	}
	if sessionID == "" {
		return uc.orphanCharge(ctx, evt, "unknown charge")
	}

	release, err := uc.lockSession(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrSessionNotFound) {
		uc.untrack(ctx, evt.Reference)
		return uc.orphanCharge(ctx, evt, "session expired")
	}
	if err != nil {
		return fmt.Errorf("%w: load session: %v", ErrUpstreamUnavailable, err)
	}

	st, ok := session.State.(domain.AwaitingPaymentState)
	if !ok || st.Charge.Reference != evt.Reference {
		if committed, ok := session.State.(domain.CommittedState); ok && committed.Reference == paymentReference(evt) {
			return nil
		}
		return uc.orphanCharge(ctx, evt, fmt.Sprintf("session %s is %s", session.ID, session.State.Name()))
	}

	now := uc.timeProvider.Now()

	if evt.Kind == payment.EventChargeExpired {
		uc.metrics.ObserveSettlement(string(domain.SettlementCharge), settlementExpired)
		session.Transition(domain.AbandonedState{Reason: domain.AbandonPaymentTimeout}, now)
		if err := uc.persist(ctx, session); err != nil {
			return err
		}
		uc.untrack(ctx, evt.Reference)
		uc.logger.Info("PaymentEvent: charge %s expired, session=%s abandoned", evt.Reference, session.ID)
		return nil
	}

	return uc.settlePaidCharge(ctx, session, st, evt, now)
}

// settlePaidCharge создаёт запись по оплаченному счёту; если слот ушёл, оплата возвращается
func (uc *UseCase) settlePaidCharge(ctx context.Context, session *domain.Session, st domain.AwaitingPaymentState, evt *payment.Event, now time.Time) error {
	date, err := st.Slot.ParsedDate()
	if err != nil {
		return fmt.Errorf("%w: stored slot date %q: %v", ErrUpstreamUnavailable, st.Slot.Date, err)
	}

	ref := paymentReference(evt)
	b := newBooking(Order{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		Date:      date,
		State:     st.SettlementChoiceState,
		Now:       now,
	}, domain.StatusConfirmed, domain.SettlementCharge, domain.OutcomePaidCharge)
	b.PaymentReference = &ref

	created, err := uc.writer.write(ctx, b)
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		uc.metrics.ObserveSettlement(string(domain.SettlementCharge), settlementSlotTaken)
		session.Reject(st.SlotSelectState, CodeSlotTaken, now)
	case err != nil:
		return err
	default:
		uc.metrics.ObserveSettlement(string(domain.SettlementCharge), settlementCommitted)
		session.Transition(domain.CommittedState{BookingID: created.ID, Outcome: domain.OutcomePaidCharge, Reference: ref}, now)
	}

	if err := uc.persist(ctx, session); err != nil {
		return err
	}
	uc.untrack(ctx, evt.Reference)

	if created == nil {
		uc.logger.Warn("PaymentEvent: slot lost after payment for session=%s, refunding charge %s", session.ID, evt.Reference)
		return uc.refund(ctx, evt)
	}

	uc.logger.Info("PaymentEvent: session=%s committed booking id=%d", session.ID, created.ID)
	uc.notify(*created)
	return nil
}

// orphanCharge оплата, которую нельзя привязать к ожидающей сессии, возвращается
func (uc *UseCase) orphanCharge(ctx context.Context, evt *payment.Event, why string) error {
	if evt.Kind != payment.EventChargeSucceeded {
		uc.logger.Info("PaymentEvent: ignoring %s for charge %s: %s", evt.Kind, evt.Reference, why)
		return nil
	}
	uc.logger.Warn("PaymentEvent: payment for charge %s cannot be applied (%s), refunding", evt.Reference, why)
	return uc.refund(ctx, evt)
}

func (uc *UseCase) refund(ctx context.Context, evt *payment.Event) error {
	if evt.PaymentIntent == "" {
		uc.logger.Error("PaymentEvent: charge %s has no payment intent, manual refund required", evt.Reference)
		return nil
	}
	if err := uc.gateway.Refund(ctx, evt.PaymentIntent); err != nil {
		return fmt.Errorf("%w: refund %s: %v", ErrUpstreamUnavailable, evt.PaymentIntent, err)
	}
	uc.metrics.ObserveSettlement(string(domain.SettlementCharge), settlementRefunded)
	return nil
}

// ExpireCharges прерывает сессии, не оплаченные к сроку; возвращает число прерванных
func (uc *UseCase) ExpireCharges(ctx context.Context) (int, error) {
	now := uc.timeProvider.Now()

	refs, err := uc.sessions.DueCharges(ctx, now, expireBatch)
	if err != nil {
		return 0, fmt.Errorf("%w: due charges: %v", ErrUpstreamUnavailable, err)
	}

	expired := 0
	for _, ref := range refs {
		ok, err := uc.expireCharge(ctx, ref, now)
		if err != nil {
			uc.logger.Warn("ExpireCharges: charge %s: %v", ref, err)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		uc.logger.Info("ExpireCharges: %d sessions abandoned after payment deadline", expired)
	}
	return expired, nil
}

func (uc *UseCase) expireCharge(ctx context.Context, ref string, now time.Time) (bool, error) {
	sessionID, err := uc.sessions.SessionByCharge(ctx, ref)
	if errors.Is(err, sessionstore.ErrChargeNotFound) {
		uc.untrack(ctx, ref)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	release, err := uc.lockSession(ctx, sessionID)
	if errors.Is(err, ErrCommitInProgress) {
		// Событие оплаты обрабатывается прямо сейчас
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer release()

	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrSessionNotFound) {
		uc.untrack(ctx, ref)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	st, ok := session.State.(domain.AwaitingPaymentState)
	if !ok || st.Charge.Reference != ref {
		uc.untrack(ctx, ref)
		return false, nil
	}

	uc.metrics.ObserveSettlement(string(domain.SettlementCharge), settlementExpired)
	session.Transition(domain.AbandonedState{Reason: domain.AbandonPaymentTimeout}, now)
	if err := uc.persist(ctx, session); err != nil {
		return false, err
	}
	uc.untrack(ctx, ref)
	return true, nil
}

func (uc *UseCase) untrack(ctx context.Context, ref string) {
	if err := uc.sessions.UntrackCharge(ctx, ref); err != nil {
		uc.logger.Warn("PaymentEvent: failed to untrack charge %s: %v", ref, err)
	}
}

func paymentReference(evt *payment.Event) string {
	if evt.PaymentIntent != "" {
		return evt.PaymentIntent
	}
	return evt.Reference
}
