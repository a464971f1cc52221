package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	// ErrInvalidSchedule возвращается, когда расписание не проходит валидацию
	ErrInvalidSchedule = errors.New("invalid weekly schedule")
)

// TimeWindow half-open interval [Start, End) within one day
type TimeWindow struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t types.TimeString) bool {
	return !t.IsBefore(w.Start) && t.IsBefore(w.End)
}

// Overlaps reports a strict overlap with [start, end); touching edges do not overlap
func (w TimeWindow) Overlaps(start, end types.TimeString) bool {
	return start.IsBefore(w.End) && end.IsAfter(w.Start)
}

func (w TimeWindow) validate() error {
	if err := w.Start.Validate(); err != nil {
		return err
	}
	if w.End.Minutes() < 0 {
		return fmt.Errorf("invalid end %q", w.End)
	}
	if !w.Start.IsBefore(w.End) {
		return fmt.Errorf("start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// DefaultExcludedWindows lunch break removed from every open day unless a day overrides it
var DefaultExcludedWindows = []TimeWindow{{Start: "12:00", End: "13:00"}}

// DaySchedule operating hours for one weekday
// Excluded == nil means DefaultExcludedWindows; an empty non-nil slice means no exclusions
type DaySchedule struct {
	IsOpen   bool             `json:"isOpen"`
	Start    types.TimeString `json:"start,omitempty"`
	End      types.TimeString `json:"end,omitempty"`
	Excluded []TimeWindow     `json:"excluded,omitempty"`
}

// ExcludedWindows resolves the default exclusion
func (d DaySchedule) ExcludedWindows() []TimeWindow {
	if d.Excluded == nil {
		return DefaultExcludedWindows
	}
	return d.Excluded
}

// WeeklySchedule working hours per weekday
type WeeklySchedule struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// Window concrete operating window of a date
type Window struct {
	Start    types.TimeString
	End      types.TimeString
	Excluded []TimeWindow
}

// IsExcluded reports whether t lies in an excluded sub-window
func (w Window) IsExcluded(t types.TimeString) bool {
	for _, ex := range w.Excluded {
		if ex.Contains(t) {
			return true
		}
	}
	return false
}

// DefaultWeeklySchedule Mon-Fri 09:00-18:00, Sat 09:00-17:00, Sun closed, lunch excluded
func DefaultWeeklySchedule() WeeklySchedule {
	weekday := DaySchedule{IsOpen: true, Start: "09:00", End: "18:00"}
	return WeeklySchedule{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  DaySchedule{IsOpen: true, Start: "09:00", End: "17:00"},
		Sunday:    DaySchedule{IsOpen: false},
	}
}

// Day возвращает расписание на указанный день недели
func (s WeeklySchedule) Day(weekday time.Weekday) DaySchedule {
	switch weekday {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	case time.Sunday:
		return s.Sunday
	default:
		return DaySchedule{IsOpen: false}
	}
}

// Validate checks every open day: parsable times, start < end, well-formed exclusions
func (s WeeklySchedule) Validate() error {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := s.Day(wd)
		if !day.IsOpen {
			continue
		}
		if err := (TimeWindow{Start: day.Start, End: day.End}).validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, wd, err)
		}
		for _, ex := range day.Excluded {
			if err := ex.validate(); err != nil {
				return fmt.Errorf("%w: %s excluded window: %v", ErrInvalidSchedule, wd, err)
			}
		}
	}
	return nil
}

// WindowFor maps a civil date to its operating window; closed days return false
func (s WeeklySchedule) WindowFor(date time.Time) (Window, bool) {
	day := s.Day(date.Weekday())
	if !day.IsOpen {
		return Window{}, false
	}
	return Window{
		Start:    day.Start,
		End:      day.End,
		Excluded: day.ExcludedWindows(),
	}, true
}

// ResolveSchedule returns s when it is valid, otherwise the default schedule and the validation error
func ResolveSchedule(s *WeeklySchedule) (WeeklySchedule, error) {
	if s == nil {
		return DefaultWeeklySchedule(), nil
	}
	if err := s.Validate(); err != nil {
		return DefaultWeeklySchedule(), err
	}
	return *s, nil
}
