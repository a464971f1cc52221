package get_available_slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func window(start, end types.TimeString, excluded ...domain.TimeWindow) domain.Window {
	if excluded == nil {
		excluded = []domain.TimeWindow{}
	}
	return domain.Window{Start: start, End: end, Excluded: excluded}
}

func booking(start types.TimeString, duration int, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{StartTime: start, DurationMinutes: duration, Status: status}
}

func TestGenerateSlots(t *testing.T) {
	t.Run("nine to six by thirty without exclusions", func(t *testing.T) {
		slots := GenerateSlots(window("09:00", "18:00"), 30)
		assert.Len(t, slots, 18)
		assert.Equal(t, types.TimeString("09:00"), slots[0])
		assert.Equal(t, types.TimeString("17:30"), slots[len(slots)-1])
	})

	t.Run("default lunch hour removed", func(t *testing.T) {
		slots := GenerateSlots(window("09:00", "18:00", domain.DefaultExcludedWindows...), 30)
		assert.Len(t, slots, 16)
		assert.NotContains(t, slots, types.TimeString("12:00"))
		assert.NotContains(t, slots, types.TimeString("12:30"))
		assert.Contains(t, slots, types.TimeString("13:00"))
	})

	t.Run("window not divisible by granularity", func(t *testing.T) {
		slots := GenerateSlots(window("09:00", "10:10"), 30)
		assert.Equal(t, []types.TimeString{"09:00", "09:30", "10:00"}, slots)
	})

	t.Run("idempotent and strictly ascending", func(t *testing.T) {
		w := window("08:15", "21:45", domain.TimeWindow{Start: "12:00", End: "13:00"})
		first := GenerateSlots(w, 15)
		second := GenerateSlots(w, 15)
		assert.Equal(t, first, second)
		for i := 1; i < len(first); i++ {
			assert.True(t, first[i-1].IsBefore(first[i]))
		}
	})

	t.Run("window ending at midnight", func(t *testing.T) {
		slots := GenerateSlots(window("22:00", "24:00"), 60)
		assert.Equal(t, []types.TimeString{"22:00", "23:00"}, slots)
	})
}

func TestOccupiedSlots(t *testing.T) {
	t.Run("ninety minute booking marks three slots", func(t *testing.T) {
		occupied := OccupiedSlots([]*domain.Booking{booking("10:00", 90, domain.StatusConfirmed)}, "09:00", 30)
		assert.Len(t, occupied, 3)
		assert.Contains(t, occupied, types.TimeString("10:00"))
		assert.Contains(t, occupied, types.TimeString("10:30"))
		assert.Contains(t, occupied, types.TimeString("11:00"))
	})

	t.Run("cancelled bookings ignored", func(t *testing.T) {
		occupied := OccupiedSlots([]*domain.Booking{booking("10:00", 60, domain.StatusCancelled)}, "09:00", 30)
		assert.Empty(t, occupied)
	})

	t.Run("no-show still occupies", func(t *testing.T) {
		occupied := OccupiedSlots([]*domain.Booking{booking("10:00", 30, domain.StatusNoShow)}, "09:00", 30)
		assert.Contains(t, occupied, types.TimeString("10:00"))
	})

	t.Run("unaligned start marks the slot it falls into", func(t *testing.T) {
		occupied := OccupiedSlots([]*domain.Booking{booking("10:10", 30, domain.StatusPending)}, "09:00", 30)
		assert.Len(t, occupied, 2)
		assert.Contains(t, occupied, types.TimeString("10:00"))
		assert.Contains(t, occupied, types.TimeString("10:30"))
	})
}

func TestFits(t *testing.T) {
	w := window("09:00", "18:00", domain.DefaultExcludedWindows...)
	occupied := OccupiedSlots([]*domain.Booking{booking("15:00", 60, domain.StatusConfirmed)}, "09:00", 30)

	tests := []struct {
		name     string
		start    types.TimeString
		duration int
		want     bool
	}{
		{name: "free morning", start: "09:00", duration: 60, want: true},
		{name: "last hour ends exactly at close", start: "17:00", duration: 60, want: true},
		{name: "runs past close", start: "17:30", duration: 60, want: false},
		{name: "runs into lunch", start: "11:30", duration: 60, want: false},
		{name: "ends at lunch", start: "11:00", duration: 60, want: true},
		{name: "runs into booking", start: "14:30", duration: 60, want: false},
		{name: "touches booking end", start: "16:00", duration: 30, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fits(tt.start, tt.duration, w, 30, occupied))
		})
	}
}

func TestIsPast(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 9, 14, 5, 0, 0, loc)

	assert.True(t, isPast(date, "14:00", loc, now))
	assert.False(t, isPast(date, "14:30", loc, now))
	assert.True(t, isPast(date.AddDate(0, 0, -1), "17:00", loc, now))
	assert.False(t, isPast(date.AddDate(0, 0, 1), "09:00", loc, now))

	// 05:05 UTC is 14:05 in Seoul
	assert.True(t, isPast(date, "14:00", loc, now.UTC()))
}
