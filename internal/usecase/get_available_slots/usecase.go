package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Причины деградации для метрик
const (
	degradedSettings = "settings"
	degradedTimezone = "timezone"
	degradedBookings = "bookings"
)

// UseCase use case для получения доступных слотов ресурса
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// dayPlan всё, что нужно для оценки слотов ресурса на одну дату
type dayPlan struct {
	date        time.Time
	open        bool
	window      domain.Window
	granularity int
	location    *time.Location
	timezone    string
	candidates  []types.TimeString
	occupied    map[types.TimeString]struct{}
}

// upstreamError ошибка источника данных с причиной для метрик
type upstreamError struct {
	reason string
	err    error
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *upstreamError) Unwrap() error {
	return e.err
}

// Execute выполняет use case получения доступных слотов
// Ошибки хранилищ не пробрасываются: ответ деградирует до пустого закрытого дня
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: tenant=%d, resource=%d, date=%s, duration=%d",
		req.TenantID, req.ResourceID, req.Date.Format(domain.DateFormat), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Собираем план дня: настройки, окно, кандидаты, занятость
	plan, err := uc.loadDayPlan(ctx, req.TenantID, req.ResourceID, req.Date)
	if err != nil {
		var upErr *upstreamError
		reason := "unknown"
		if errors.As(err, &upErr) {
			reason = upErr.reason
		}
		uc.metrics.ObserveAvailabilityDegraded(reason)
		uc.logger.Error("GetAvailableSlots: degraded to empty result for resource=%d date=%s: %v",
			req.ResourceID, req.Date.Format(domain.DateFormat), err)

		return &Response{
			Date:            req.Date,
			ResourceID:      req.ResourceID,
			DurationMinutes: req.DurationMinutes,
			Closed:          true,
			Degraded:        true,
			Slots:           []Slot{},
		}, nil
	}

	response := &Response{
		Date:               req.Date,
		ResourceID:         req.ResourceID,
		Timezone:           plan.timezone,
		GranularityMinutes: plan.granularity,
		DurationMinutes:    req.DurationMinutes,
		Closed:             !plan.open,
		Slots:              []Slot{},
	}

	// 4. Закрытый день
	if !plan.open {
		uc.logger.Info("GetAvailableSlots: resource=%d is closed on %s", req.ResourceID, req.Date.Format(domain.DateFormat))
		return response, nil
	}

	// 5. Вычисляем доступность для каждого слота
	response.Slots = evaluateSlots(plan, req.DurationMinutes, now.In(plan.location))

	available := 0
	for _, s := range response.Slots {
		if s.Available {
			available++
		}
	}
	uc.logger.Info("GetAvailableSlots: generated %d slots (%d available, today=%t) for resource=%d, date=%s",
		len(response.Slots), available, isSameDay(req.Date, now.In(plan.location)), req.ResourceID, req.Date.Format(domain.DateFormat))

	return response, nil
}

// CheckSlot строгая проверка одного слота для момента фиксации записи
// В отличие от Execute пробрасывает ошибки хранилищ как ErrUpstreamUnavailable.
// Вызванная внутри транзакции, читает бронирования с блокировкой
func (uc *UseCase) CheckSlot(ctx context.Context, req *CheckRequest) (bool, error) {
	if err := validateCheckRequest(req); err != nil {
		return false, err
	}

	now := uc.timeProvider.Now()

	plan, err := uc.loadDayPlan(ctx, req.TenantID, req.ResourceID, req.Date)
	if err != nil {
		uc.logger.Error("CheckSlot: failed to load day plan for resource=%d date=%s: %v",
			req.ResourceID, req.Date.Format(domain.DateFormat), err)
		return false, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if !plan.open {
		uc.logger.Warn("CheckSlot: resource=%d closed on %s", req.ResourceID, req.Date.Format(domain.DateFormat))
		return false, nil
	}

	if !containsSlot(plan.candidates, req.StartTime) {
		uc.logger.Warn("CheckSlot: %s is not a slot of resource=%d on %s",
			req.StartTime, req.ResourceID, req.Date.Format(domain.DateFormat))
		return false, nil
	}

	if isPast(plan.date, req.StartTime, plan.location, now) {
		uc.logger.Warn("CheckSlot: %s %s is in the past", req.Date.Format(domain.DateFormat), req.StartTime)
		return false, nil
	}

	return fits(req.StartTime, req.DurationMinutes, plan.window, plan.granularity, plan.occupied), nil
}

func (uc *UseCase) loadDayPlan(ctx context.Context, tenantID, resourceID int64, date time.Time) (*dayPlan, error) {
	// Настройки с учетом иерархии
	settings, err := uc.scheduleRepo.GetSettingsWithHierarchy(ctx, tenantID, ptr.Ptr(resourceID))
	if err != nil && !errors.Is(err, scheduleRepo.ErrSettingsNotFound) {
		return nil, &upstreamError{reason: degradedSettings, err: err}
	}
	if settings == nil {
		settings = domain.DefaultResourceSettings(tenantID)
		uc.logger.Info("GetAvailableSlots: using default settings for tenant=%d, resource=%d", tenantID, resourceID)
	}

	granularity := settings.GranularityMinutes
	if !domain.ValidGranularity(granularity) {
		uc.logger.Warn("GetAvailableSlots: invalid granularity=%d for tenant=%d, using %d",
			granularity, tenantID, domain.DefaultGranularityMinutes)
		granularity = domain.DefaultGranularityMinutes
	}

	loc, err := settings.Location()
	if err != nil {
		return nil, &upstreamError{reason: degradedTimezone, err: err}
	}

	schedule, err := domain.ResolveSchedule(settings.Schedule)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: malformed schedule for tenant=%d resource=%d, using default: %v",
			tenantID, resourceID, err)
	}

	civilDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	plan := &dayPlan{
		date:        civilDate,
		granularity: granularity,
		location:    loc,
		timezone:    loc.String(),
	}

	window, open := schedule.WindowFor(civilDate)
	if !open {
		return plan, nil
	}
	plan.open = true
	plan.window = window
	plan.candidates = GenerateSlots(window, granularity)

	bookings, err := uc.bookingRepo.ListNonCancelled(ctx, tenantID, resourceID, civilDate)
	if err != nil {
		return nil, &upstreamError{reason: degradedBookings, err: err}
	}
	plan.occupied = OccupiedSlots(bookings, window.Start, granularity)

	return plan, nil
}
