package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type mockBookingRepo struct{ mock.Mock }

func (m *mockBookingRepo) ListNonCancelled(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, tenantID, resourceID, date)
	bookings, _ := args.Get(0).([]*domain.Booking)
	return bookings, args.Error(1)
}

type mockScheduleRepo struct{ mock.Mock }

func (m *mockScheduleRepo) GetSettingsWithHierarchy(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error) {
	args := m.Called(ctx, tenantID, resourceID)
	settings, _ := args.Get(0).(*domain.ResourceSettings)
	return settings, args.Error(1)
}

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) ObserveAvailabilityDegraded(reason string) {
	m.Called(reason)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var (
	seoul       = time.FixedZone("KST", 9*60*60)
	testMonday  = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	mondayNoon  = time.Date(2026, 3, 9, 14, 5, 0, 0, seoul)
	weekBefore  = time.Date(2026, 3, 2, 8, 0, 0, 0, seoul)
	utcSettings = &domain.ResourceSettings{TenantID: 1, GranularityMinutes: 30, Timezone: "UTC"}
)

func newUseCase(now time.Time) (*UseCase, *mockBookingRepo, *mockScheduleRepo, *mockMetrics) {
	bookings := &mockBookingRepo{}
	schedules := &mockScheduleRepo{}
	metrics := &mockMetrics{}
	uc := NewUseCase(bookings, schedules, metrics, logger.Discard()).WithTimeProvider(fixedTime{now: now})
	return uc, bookings, schedules, metrics
}

func times(slots []Slot, available bool) []types.TimeString {
	out := make([]types.TimeString, 0)
	for _, s := range slots {
		if s.Available == available {
			out = append(out, s.StartTime)
		}
	}
	return out
}

func TestExecute_MondayScenario(t *testing.T) {
	uc, bookings, schedules, _ := newUseCase(weekBefore)

	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(nil, scheduleRepo.ErrSettingsNotFound)
	bookings.On("ListNonCancelled", mock.Anything, int64(1), int64(5), testMonday).Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday, DurationMinutes: 60})
	require.NoError(t, err)

	assert.False(t, resp.Closed)
	assert.Equal(t, 30, resp.GranularityMinutes)
	require.Len(t, resp.Slots, 16)

	available := times(resp.Slots, true)
	assert.Equal(t, types.TimeString("09:00"), available[0])
	assert.Equal(t, types.TimeString("17:00"), available[len(available)-1])
	assert.NotContains(t, available, types.TimeString("11:30"), "runs into the lunch break")
	assert.NotContains(t, available, types.TimeString("17:30"), "runs past close")
}

func TestExecute_ClosedDay(t *testing.T) {
	uc, _, schedules, _ := newUseCase(weekBefore)
	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(utcSettings, nil)

	resp, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday.AddDate(0, 0, 6), DurationMinutes: 30})
	require.NoError(t, err)

	assert.True(t, resp.Closed)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.Slots)
}

func TestExecute_ExistingBookingAndPastCutoff(t *testing.T) {
	uc, bookings, schedules, _ := newUseCase(mondayNoon)

	settings := &domain.ResourceSettings{TenantID: 1, GranularityMinutes: 30, Timezone: "Asia/Seoul"}
	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(settings, nil)
	bookings.On("ListNonCancelled", mock.Anything, int64(1), int64(5), testMonday).Return([]*domain.Booking{
		booking("15:00", 90, domain.StatusConfirmed),
		booking("17:00", 30, domain.StatusCancelled),
	}, nil)

	resp, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday, DurationMinutes: 30})
	require.NoError(t, err)

	assert.Equal(t,
		[]types.TimeString{"14:30", "16:30", "17:00", "17:30"},
		times(resp.Slots, true))
}

func TestExecute_DegradesOnUpstreamFailure(t *testing.T) {
	uc, bookings, schedules, metrics := newUseCase(weekBefore)

	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(utcSettings, nil)
	bookings.On("ListNonCancelled", mock.Anything, int64(1), int64(5), testMonday).Return(nil, errors.New("connection refused"))
	metrics.On("ObserveAvailabilityDegraded", degradedBookings).Once()

	resp, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday, DurationMinutes: 30})
	require.NoError(t, err)

	assert.True(t, resp.Closed)
	assert.True(t, resp.Degraded)
	assert.Empty(t, resp.Slots)
	metrics.AssertExpectations(t)
}

func TestExecute_MalformedScheduleUsesDefault(t *testing.T) {
	uc, bookings, schedules, _ := newUseCase(weekBefore)

	broken := domain.DefaultWeeklySchedule()
	broken.Monday = domain.DaySchedule{IsOpen: true, Start: "18:00", End: "09:00"}
	settings := &domain.ResourceSettings{TenantID: 1, GranularityMinutes: 25, Timezone: "UTC", Schedule: &broken}

	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(settings, nil)
	bookings.On("ListNonCancelled", mock.Anything, int64(1), int64(5), testMonday).Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday, DurationMinutes: 30})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultGranularityMinutes, resp.GranularityMinutes)
	assert.Len(t, resp.Slots, 16)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc, _, _, _ := newUseCase(weekBefore)

	_, err := uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 5, Date: testMonday})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{TenantID: 1, ResourceID: 0, Date: testMonday, DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckSlot(t *testing.T) {
	uc, bookings, schedules, _ := newUseCase(weekBefore)

	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(utcSettings, nil)
	bookings.On("ListNonCancelled", mock.Anything, int64(1), int64(5), testMonday).Return([]*domain.Booking{
		booking("10:00", 90, domain.StatusConfirmed),
	}, nil)

	check := func(start types.TimeString, duration int) bool {
		ok, err := uc.CheckSlot(context.Background(), &CheckRequest{
			TenantID: 1, ResourceID: 5, Date: testMonday, StartTime: start, DurationMinutes: duration,
		})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check("09:00", 60))
	assert.False(t, check("09:30", 60), "overlaps the 10:00 booking")
	assert.False(t, check("11:00", 30), "last slot of the 90 minute booking")
	assert.True(t, check("11:30", 30))
	assert.False(t, check("09:10", 30), "not on the grid")
	assert.False(t, check("12:00", 30), "excluded lunch slot")
}

func TestCheckSlot_SurfacesUpstreamErrors(t *testing.T) {
	uc, _, schedules, _ := newUseCase(weekBefore)
	schedules.On("GetSettingsWithHierarchy", mock.Anything, int64(1), mock.Anything).Return(nil, errors.New("timeout"))

	_, err := uc.CheckSlot(context.Background(), &CheckRequest{
		TenantID: 1, ResourceID: 5, Date: testMonday, StartTime: "09:00", DurationMinutes: 30,
	})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
