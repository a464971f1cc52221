package booking_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/entitlement"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/entitlements"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// Order всё, что стратегии расчёта знают о фиксируемой записи
type Order struct {
	SessionID string
	TenantID  int64
	Date      time.Time
	State     domain.SettlementChoiceState
	Now       time.Time
}

// Settlement результат стратегии: созданная запись либо выставленный счёт
type Settlement struct {
	Booking *domain.Booking
	Charge  *domain.PendingCharge
}

// Settler стратегия расчёта за запись
type Settler interface {
	Settle(ctx context.Context, order Order) (*Settlement, error)
}

// newBooking собирает запись из данных сессии
func newBooking(order Order, status domain.BookingStatus, method domain.SettlementMethod, outcome domain.SettlementOutcome) *domain.Booking {
	st := order.State

	var customerID *int64
	if !st.Customer.IsGuest() {
		id := st.Customer.CustomerID
		customerID = &id
	}

	var email *string
	if st.Contact.Email != "" {
		e := st.Contact.Email
		email = &e
	}

	return &domain.Booking{
		TenantID:        order.TenantID,
		ResourceID:      st.Resource.ID,
		ServiceID:       st.Service.ID,
		CustomerID:      customerID,
		BookingDate:     order.Date,
		StartTime:       st.Slot.StartTime,
		DurationMinutes: st.Service.DurationMinutes,
		Status:          status,
		Settlement:      method,
		Outcome:         outcome,
		Amount:          st.Service.Price,
		Currency:        st.Service.Currency,
		ServiceName:     st.Service.Name,
		CustomerName:    st.Contact.Name,
		CustomerPhone:   st.Contact.Phone,
		IdentityPhone:   st.Customer.Phone,
		ContactChannel:  st.Contact.Channel,
		CustomerEmail:   email,
		SessionID:       order.SessionID,
	}
}

// bookingWriter единственное место создания записей
// Фиксации одного ресурса на одну дату выполняются строго по очереди
type bookingWriter struct {
	txManager    TransactionManager
	bookingRepo  BookingRepository
	entRepo      EntitlementRepository
	availability Availability
	logger       Logger
}

func (w *bookingWriter) write(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	var created *domain.Booking

	err := w.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Блокировка (ресурс, дата)
		if err := w.bookingRepo.LockResourceDay(txCtx, b.ResourceID, b.BookingDate); err != nil {
			return fmt.Errorf("%w: lock resource day: %v", ErrUpstreamUnavailable, err)
		}

		// 2. Перепроверка слота под блокировкой
		ok, err := w.availability.CheckSlot(txCtx, &get_available_slots.CheckRequest{
			TenantID:        b.TenantID,
			ResourceID:      b.ResourceID,
			Date:            b.BookingDate,
			StartTime:       b.StartTime,
			DurationMinutes: b.DurationMinutes,
		})
		if err != nil {
			return fmt.Errorf("%w: check slot: %v", ErrUpstreamUnavailable, err)
		}
		if !ok {
			return ErrSlotUnavailable
		}

		// 3. Списание посещения с пакета
		if b.EntitlementID != nil {
			err := w.entRepo.DecrementIfPositive(txCtx, *b.EntitlementID)
			if errors.Is(err, entitlement.ErrEntitlementExhausted) {
				return ErrEntitlementExhausted
			}
			if err != nil {
				return fmt.Errorf("%w: decrement entitlement: %v", ErrUpstreamUnavailable, err)
			}
		}

		// 4. Создание записи
		created, err = w.bookingRepo.Create(txCtx, b)
		if errors.Is(err, booking.ErrSlotNotAvailable) {
			return ErrSlotUnavailable
		}
		if err != nil {
			return fmt.Errorf("%w: create booking: %v", ErrUpstreamUnavailable, err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrEntitlementExhausted) || errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		w.logger.Error("BookingSession: commit transaction failed for resource=%d date=%s: %v",
			b.ResourceID, b.BookingDate.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: commit transaction: %v", ErrUpstreamUnavailable, err)
	}

	w.logger.Info("BookingSession: booking id=%d created for resource=%d date=%s time=%s outcome=%s",
		created.ID, created.ResourceID, created.BookingDate.Format(domain.DateFormat), created.StartTime, created.Outcome)
	return created, nil
}

// redemptionSettler списывает посещение с пакета клиента
type redemptionSettler struct {
	writer       *bookingWriter
	entitlements EntitlementService
}

func (s *redemptionSettler) Settle(ctx context.Context, order Order) (*Settlement, error) {
	st := order.State

	// Баланс в сессии мог устареть, перечитываем
	list, err := s.entitlements.EntitlementsFor(ctx, order.TenantID, st.Customer, order.Now)
	if err != nil {
		return nil, fmt.Errorf("%w: entitlements: %v", ErrUpstreamUnavailable, err)
	}

	// Пакет, опустошённый параллельной фиксацией, уступает следующему
	for _, ent := range entitlements.AllCovering(list, st.Service.ID, order.Now) {
		entID := ent.ID
		b := newBooking(order, domain.StatusConfirmed, domain.SettlementRedemption, domain.OutcomeRedeemedEntitlement)
		b.EntitlementID = &entID

		created, err := s.writer.write(ctx, b)
		if errors.Is(err, ErrEntitlementExhausted) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Settlement{Booking: created}, nil
	}

	return nil, ErrEntitlementExhausted
}

// chargeSettler выставляет счёт; запись создаётся только после подтверждения оплаты
type chargeSettler struct {
	gateway  PaymentGateway
	deadline time.Duration
}

func (s *chargeSettler) Settle(ctx context.Context, order Order) (*Settlement, error) {
	st := order.State
	deadline := order.Now.Add(s.deadline)

	charge, err := s.gateway.InitiateCharge(ctx, payment.ChargeRequest{
		SessionID:   order.SessionID,
		TenantID:    order.TenantID,
		Amount:      st.Service.Price,
		Currency:    st.Service.Currency,
		Description: fmt.Sprintf("%s, %s %s", st.Service.Name, st.Slot.Date, st.Slot.StartTime),
		Deadline:    deadline,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailure, err)
	}

	return &Settlement{Charge: &domain.PendingCharge{
		Reference:   charge.Reference,
		CheckoutURL: charge.CheckoutURL,
		Amount:      st.Service.Price,
		Currency:    st.Service.Currency,
		Deadline:    deadline,
	}}, nil
}

// deferredSettler записывает с оплатой на месте
type deferredSettler struct {
	writer *bookingWriter
}

func (s *deferredSettler) Settle(ctx context.Context, order Order) (*Settlement, error) {
	b := newBooking(order, domain.StatusPendingPayment, domain.SettlementDeferred, domain.OutcomeDeferredPayment)

	created, err := s.writer.write(ctx, b)
	if err != nil {
		return nil, err
	}
	return &Settlement{Booking: created}, nil
}
