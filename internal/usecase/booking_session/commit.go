package booking_session

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// Результаты расчёта для метрик
const (
	settlementCommitted = "committed"
	settlementPending   = "pending"
	settlementSlotTaken = "slot_taken"
	settlementExhausted = "exhausted"
	settlementFailed    = "failed"
	settlementBlocked   = "blocked"
	settlementError     = "error"
	settlementExpired   = "expired"
	settlementRefunded  = "refunded"
)

// Commit фиксирует запись выбранным способом расчёта
func (uc *UseCase) Commit(ctx context.Context, tenantID int64, sessionID string, req CommitRequest) (*View, error) {
	uc.logger.Info("BookingSession: commit session=%s method=%s", sessionID, req.Method)

	// 1. Токен фиксации: параллельная фиксация той же сессии отклоняется
	release, err := uc.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Загружаем сессию уже под токеном
	session, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	st, ok := session.State.(domain.SettlementChoiceState)
	if !ok {
		return uc.view(ctx, session, nil), fmt.Errorf("%w: commit from %s", ErrInvalidTransition, session.State.Name())
	}

	now := uc.timeProvider.Now()

	// 3. Валидация выбора
	settler, known := uc.settlers[req.Method]
	code, verr := validateCommit(req, &st)
	if verr == nil && !known {
		code, verr = CodeMethodNotAllowed, fmt.Errorf("%w: settlement method %q is not available", ErrValidation, req.Method)
	}
	if verr != nil {
		session.Reject(st, code, now)
		return uc.finishCommit(ctx, session, verr)
	}

	// 4. Повторная проверка допуска
	blocked, err := uc.entitlements.IsBlocked(ctx, tenantID, st.Customer.Phone)
	if err != nil {
		uc.logger.Error("BookingSession: eligibility check failed for session=%s: %v", session.ID, err)
		return nil, fmt.Errorf("%w: eligibility check: %v", ErrUpstreamUnavailable, err)
	}
	if blocked {
		uc.metrics.ObserveSettlement(string(req.Method), settlementBlocked)
		session.Transition(domain.AbandonedState{Reason: domain.AbandonIneligible}, now)
		return uc.finishCommit(ctx, session, ErrEligibilityBlocked)
	}

	date, err := st.Slot.ParsedDate()
	if err != nil {
		return nil, fmt.Errorf("%w: stored slot date %q: %v", ErrUpstreamUnavailable, st.Slot.Date, err)
	}

	// 5. Предварительная проверка слота; окончательная выполняется под блокировкой при записи
	free, err := uc.availability.CheckSlot(ctx, &get_available_slots.CheckRequest{
		TenantID:        tenantID,
		ResourceID:      st.Resource.ID,
		Date:            date,
		StartTime:       st.Slot.StartTime,
		DurationMinutes: st.Service.DurationMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: check slot: %v", ErrUpstreamUnavailable, err)
	}
	if !free {
		uc.metrics.ObserveSettlement(string(req.Method), settlementSlotTaken)
		session.Reject(st.SlotSelectState, CodeSlotTaken, now)
		return uc.finishCommit(ctx, session, ErrSlotUnavailable)
	}

	// 6. Расчёт выбранной стратегией
	result, err := settler.Settle(ctx, Order{
		SessionID: session.ID,
		TenantID:  tenantID,
		Date:      date,
		State:     st,
		Now:       now,
	})

	// 7. Переход по результату
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		uc.metrics.ObserveSettlement(string(req.Method), settlementSlotTaken)
		session.Reject(st.SlotSelectState, CodeSlotTaken, now)
	case errors.Is(err, ErrEntitlementExhausted):
		uc.metrics.ObserveSettlement(string(req.Method), settlementExhausted)
		next := st
		next.Options = st.Without(domain.SettlementRedemption)
		session.Reject(next, CodeEntitlementExhausted, now)
	case errors.Is(err, ErrSettlementFailure):
		uc.metrics.ObserveSettlement(string(req.Method), settlementFailed)
		session.Transition(domain.AbandonedState{Reason: domain.AbandonSettlementFailure}, now)
	case err != nil:
		uc.metrics.ObserveSettlement(string(req.Method), settlementError)
		uc.logger.Error("BookingSession: commit failed for session=%s: %v", session.ID, err)
		return nil, err
	case result.Charge != nil:
		uc.metrics.ObserveSettlement(string(req.Method), settlementPending)
		session.Transition(domain.AwaitingPaymentState{SettlementChoiceState: st, Charge: *result.Charge}, now)
		if terr := uc.sessions.TrackCharge(ctx, result.Charge.Reference, session.ID, result.Charge.Deadline, uc.ttlFor(session)); terr != nil {
			// Событие шлюза найдёт сессию по метаданным, а истечение обработает TTL сессии
			uc.logger.Warn("BookingSession: failed to track charge %s for session=%s: %v", result.Charge.Reference, session.ID, terr)
		}
	default:
		uc.metrics.ObserveSettlement(string(req.Method), settlementCommitted)
		session.Transition(domain.CommittedState{BookingID: result.Booking.ID, Outcome: result.Booking.Outcome}, now)
		uc.notify(*result.Booking)
	}

	return uc.finishCommit(ctx, session, err)
}

func (uc *UseCase) finishCommit(ctx context.Context, session *domain.Session, commitErr error) (*View, error) {
	if err := uc.persist(ctx, session); err != nil {
		return nil, err
	}
	if commitErr != nil {
		uc.logger.Warn("BookingSession: commit rejected for session=%s: %v", session.ID, commitErr)
	} else {
		uc.logger.Info("BookingSession: session=%s is %s", session.ID, session.State.Name())
	}
	return uc.view(ctx, session, nil), commitErr
}

func (uc *UseCase) notify(b domain.Booking) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.BookingConfirmed(b)
}
