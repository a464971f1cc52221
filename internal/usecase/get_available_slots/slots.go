package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// GenerateSlots генерирует кандидатов на начало записи: от начала окна с шагом granularity,
// пока время строго меньше конца окна. Слоты, попадающие в исключённые интервалы, пропускаются
func GenerateSlots(window domain.Window, granularity int) []types.TimeString {
	slots := make([]types.TimeString, 0)
	if granularity <= 0 {
		return slots
	}

	for current := window.Start; current.IsBefore(window.End); {
		if !window.IsExcluded(current) {
			slots = append(slots, current)
		}

		next, err := current.AddMinutes(granularity)
		if err != nil {
			break
		}
		current = next
	}

	return slots
}

// OccupiedSlots строит множество занятых слотов сетки (сетка привязана к anchor)
// Каждое неотменённое бронирование помечает все слоты сетки, пересекающиеся с [start, start+duration).
// Для выровненного начала это ровно start, start+g, ... пока offset < duration
func OccupiedSlots(bookings []*domain.Booking, anchor types.TimeString, granularity int) map[types.TimeString]struct{} {
	occupied := make(map[types.TimeString]struct{})
	if granularity <= 0 {
		return occupied
	}

	for _, booking := range bookings {
		// Отменённые бронирования слот не занимают
		if !booking.IsActive() {
			continue
		}

		start := booking.StartTime.Minutes()
		if start < 0 || booking.DurationMinutes <= 0 {
			continue
		}
		end := start + booking.DurationMinutes

		// Начало невыровненного бронирования относим к слоту, в который оно попадает
		base := anchor.Minutes()
		first := base + floorDiv(start-base, granularity)*granularity

		for m := first; m < end; m += granularity {
			if m < 0 {
				continue
			}
			occupied[minutesToTime(m)] = struct{}{}
		}
	}

	return occupied
}

// fits проверяет, что запись длительностью duration, начиная со start,
// целиком помещается в окно, не задевает исключённые интервалы и занятые слоты
func fits(
	start types.TimeString,
	duration int,
	window domain.Window,
	granularity int,
	occupied map[types.TimeString]struct{},
) bool {
	end, err := start.AddMinutes(duration)
	if err != nil {
		return false
	}

	if start.IsBefore(window.Start) || end.IsAfter(window.End) {
		return false
	}

	for _, ex := range window.Excluded {
		if ex.Overlaps(start, end) {
			return false
		}
	}

	for current := start; current.IsBefore(end); {
		if _, busy := occupied[current]; busy {
			return false
		}
		next, err := current.AddMinutes(granularity)
		if err != nil {
			return false
		}
		current = next
	}

	return true
}

// isPast слот в прошлом, если его начало в часовом поясе ресурса не позже now
func isPast(date time.Time, start types.TimeString, loc *time.Location, now time.Time) bool {
	return !start.On(date, loc).After(now)
}

// evaluateSlots вычисляет доступность каждого кандидата
func evaluateSlots(plan *dayPlan, duration int, now time.Time) []Slot {
	result := make([]Slot, len(plan.candidates))

	for i, start := range plan.candidates {
		available := !isPast(plan.date, start, plan.location, now) &&
			fits(start, duration, plan.window, plan.granularity, plan.occupied)

		result[i] = Slot{
			StartTime: start,
			Available: available,
		}
	}

	return result
}

func containsSlot(candidates []types.TimeString, t types.TimeString) bool {
	for _, c := range candidates {
		if c.Equal(t) {
			return true
		}
	}
	return false
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func minutesToTime(m int) types.TimeString {
	t, _ := types.TimeString("00:00").AddMinutes(m)
	return t
}
