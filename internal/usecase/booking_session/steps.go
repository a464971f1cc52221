package booking_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/service/entitlements"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Advance применяет ввод клиента к текущему шагу сессии
// Ошибка шага возвращается вместе с представлением: сессия остаётся на шаге с кодом в lastError
func (uc *UseCase) Advance(ctx context.Context, tenantID int64, sessionID string, in StepInput) (*View, error) {
	// 1. Загружаем сессию
	session, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.State.Terminal() {
		return uc.view(ctx, session, nil), fmt.Errorf("%w: session is %s", ErrInvalidTransition, session.State.Name())
	}

	uc.logger.Info("BookingSession: advance session=%s state=%s", session.ID, session.State.Name())

	// 2. Выполняем шаг текущего состояния
	now := uc.timeProvider.Now()
	var (
		slots   *SlotsView
		stepErr error
	)

	switch st := session.State.(type) {
	case domain.IdentityState:
		stepErr = uc.identify(ctx, session, in, now)
	case domain.ServiceSelectState:
		stepErr = uc.selectService(ctx, session, st, in, now)
	case domain.ResourceSelectState:
		stepErr = uc.selectResource(ctx, session, st, in, now)
	case domain.SlotSelectState:
		slots, stepErr = uc.selectSlot(ctx, session, st, in, now)
	case domain.ContactCaptureState:
		stepErr = uc.captureContact(session, st, in, now)
	default:
		return uc.view(ctx, session, nil), fmt.Errorf("%w: %s expects commit", ErrInvalidTransition, session.State.Name())
	}

	// 3. Недоступность хранилищ не меняет сессию, шаг можно повторить
	if errors.Is(stepErr, ErrUpstreamUnavailable) {
		uc.logger.Error("BookingSession: step failed for session=%s: %v", session.ID, stepErr)
		return nil, stepErr
	}

	// 4. Сохраняем результат шага
	if err := uc.persist(ctx, session); err != nil {
		return nil, err
	}

	if stepErr != nil {
		uc.logger.Warn("BookingSession: step rejected for session=%s: %v", session.ID, stepErr)
	}

	return uc.view(ctx, session, slots), stepErr
}

// identify нормализует телефон и проверяет допуск до раскрытия любых данных
func (uc *UseCase) identify(ctx context.Context, session *domain.Session, in StepInput, now time.Time) error {
	phone, err := uc.normalizePhone(in.Phone)
	if err != nil {
		session.Reject(domain.IdentityState{}, CodeInvalidPhone, now)
		return err
	}

	blocked, err := uc.entitlements.IsBlocked(ctx, session.TenantID, phone)
	if err != nil {
		return fmt.Errorf("%w: eligibility check: %v", ErrUpstreamUnavailable, err)
	}
	if blocked {
		session.Transition(domain.BlockedState{}, now)
		uc.logger.Info("BookingSession: session=%s blocked by eligibility gate", session.ID)
		return ErrEligibilityBlocked
	}

	customer := uc.identity.ResolveIdentity(ctx, session.TenantID, phone)
	customer.Phone = phone

	list, err := uc.entitlements.EntitlementsFor(ctx, session.TenantID, customer, now)
	if err != nil {
		// Без пакетов клиент всё равно может записаться с оплатой
		uc.logger.Warn("BookingSession: entitlements unavailable for session=%s, continuing without them: %v", session.ID, err)
		list = nil
	}

	session.Transition(domain.ServiceSelectState{Customer: customer, Entitlements: list}, now)
	return nil
}

func (uc *UseCase) selectService(ctx context.Context, session *domain.Session, st domain.ServiceSelectState, in StepInput, now time.Time) error {
	if in.ServiceID <= 0 {
		session.Reject(st, CodeInvalidInput, now)
		return fmt.Errorf("%w: serviceId is required", ErrValidation)
	}

	service, err := uc.catalog.GetService(ctx, session.TenantID, in.ServiceID)
	if errors.Is(err, catalogRepo.ErrServiceNotFound) || (err == nil && !service.IsActive) {
		session.Reject(st, CodeServiceUnavailable, now)
		return fmt.Errorf("%w: service %d is not offered", ErrValidation, in.ServiceID)
	}
	if err != nil {
		return fmt.Errorf("%w: get service: %v", ErrUpstreamUnavailable, err)
	}

	_, covered := entitlements.Covering(st.Entitlements, service.ID, now)

	session.Transition(domain.ResourceSelectState{
		ServiceSelectState: st,
		Service: domain.ServiceChoice{
			ID:              service.ID,
			Name:            service.Name,
			DurationMinutes: service.DurationMinutes,
			Price:           service.Price,
			Currency:        service.Currency,
			Covered:         covered,
		},
	}, now)
	return nil
}

func (uc *UseCase) selectResource(ctx context.Context, session *domain.Session, st domain.ResourceSelectState, in StepInput, now time.Time) error {
	if in.ResourceID <= 0 {
		session.Reject(st, CodeInvalidInput, now)
		return fmt.Errorf("%w: resourceId is required", ErrValidation)
	}

	resource, err := uc.catalog.GetResource(ctx, session.TenantID, in.ResourceID)
	if errors.Is(err, catalogRepo.ErrResourceNotFound) {
		session.Reject(st, CodeResourceUnavailable, now)
		return fmt.Errorf("%w: resource %d not found", ErrValidation, in.ResourceID)
	}
	if err != nil {
		return fmt.Errorf("%w: get resource: %v", ErrUpstreamUnavailable, err)
	}

	if !resource.CanPerform(st.Service.ID) {
		session.Reject(st, CodeResourceIncapable, now)
		return fmt.Errorf("%w: resource %d does not perform service %d", ErrValidation, resource.ID, st.Service.ID)
	}

	session.Transition(domain.SlotSelectState{
		ResourceSelectState: st,
		Resource:            domain.ResourceChoice{ID: resource.ID, Name: resource.Name},
	}, now)
	return nil
}

// selectSlot без startTime возвращает свободные слоты на дату, со startTime выбирает слот
func (uc *UseCase) selectSlot(ctx context.Context, session *domain.Session, st domain.SlotSelectState, in StepInput, now time.Time) (*SlotsView, error) {
	date, err := time.Parse(domain.DateFormat, in.Date)
	if err != nil {
		session.Reject(st, CodeInvalidInput, now)
		return nil, fmt.Errorf("%w: date must be %s", ErrValidation, domain.DateFormat)
	}

	if in.StartTime == "" {
		resp, err := uc.availability.Execute(ctx, &get_available_slots.Request{
			TenantID:        session.TenantID,
			ResourceID:      st.Resource.ID,
			Date:            date,
			DurationMinutes: st.Service.DurationMinutes,
		})
		if err != nil {
			session.Reject(st, CodeInvalidInput, now)
			return nil, fmt.Errorf("%w: availability: %v", ErrValidation, err)
		}

		times := make([]types.TimeString, 0, len(resp.Slots))
		for _, s := range resp.Slots {
			if s.Available {
				times = append(times, s.StartTime)
			}
		}

		session.Transition(st, now)
		return &SlotsView{Date: in.Date, Timezone: resp.Timezone, Closed: resp.Closed, Times: times}, nil
	}

	if err := in.StartTime.Validate(); err != nil {
		session.Reject(st, CodeInvalidInput, now)
		return nil, fmt.Errorf("%w: startTime: %v", ErrValidation, err)
	}

	ok, err := uc.availability.CheckSlot(ctx, &get_available_slots.CheckRequest{
		TenantID:        session.TenantID,
		ResourceID:      st.Resource.ID,
		Date:            date,
		StartTime:       in.StartTime,
		DurationMinutes: st.Service.DurationMinutes,
	})
	if errors.Is(err, get_available_slots.ErrInvalidInput) {
		session.Reject(st, CodeInvalidInput, now)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: check slot: %v", ErrUpstreamUnavailable, err)
	}
	if !ok {
		session.Reject(st, CodeSlotTaken, now)
		return nil, ErrSlotUnavailable
	}

	session.Transition(domain.ContactCaptureState{
		SlotSelectState: st,
		Slot:            domain.SlotChoice{Date: date.Format(domain.DateFormat), StartTime: in.StartTime},
	}, now)
	return nil, nil
}

func (uc *UseCase) captureContact(session *domain.Session, st domain.ContactCaptureState, in StepInput, now time.Time) error {
	contact, err := uc.validateContact(in, st.Customer)
	if err != nil {
		session.Reject(st, CodeInvalidContact, now)
		return err
	}

	session.Transition(domain.SettlementChoiceState{
		ContactCaptureState: st,
		Contact:             contact,
		Options:             uc.settlementOptions(st, now),
	}, now)
	return nil
}

// settlementOptions redemption только при покрывающем пакете, charge при настроенном шлюзе и ненулевой цене
func (uc *UseCase) settlementOptions(st domain.ContactCaptureState, now time.Time) []domain.SettlementMethod {
	options := make([]domain.SettlementMethod, 0, 3)
	if _, ok := entitlements.Covering(st.Entitlements, st.Service.ID, now); ok {
		options = append(options, domain.SettlementRedemption)
	}
	if _, ok := uc.settlers[domain.SettlementCharge]; ok && st.Service.Price.IsPositive() {
		options = append(options, domain.SettlementCharge)
	}
	return append(options, domain.SettlementDeferred)
}
