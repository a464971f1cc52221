package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOutOfRange возвращается, когда арифметика выводит время за пределы суток
	ErrTimeOutOfRange = errors.New("time out of day range")
)

// TimeString time of day in "HH:MM" format.
// "24:00" is accepted only as an exclusive end boundary produced by AddMinutes.
type TimeString string

// NewTimeString takes the wall clock of t, truncated to minutes.
func NewTimeString(t time.Time) TimeString {
	return fromMinutes(t.Hour()*60 + t.Minute())
}

// NewTimeStringFromString parses "HH:MM" (seconds are tolerated and dropped).
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(strings.TrimSpace(s))
	if len(ts) == 8 && ts[5] == ':' {
		ts = ts[:5]
	}
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// MustTimeString for constants and tests.
func MustTimeString(s string) TimeString {
	ts, err := NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// Validate checks a wall-clock value in 00:00..23:59.
func (t TimeString) Validate() error {
	m, err := t.parse()
	if err != nil {
		return err
	}
	if m >= minutesPerDay {
		return fmt.Errorf("%w: %q", ErrTimeOutOfRange, string(t))
	}
	return nil
}

// Minutes returns minutes since midnight, -1 for malformed values.
func (t TimeString) Minutes() int {
	m, err := t.parse()
	if err != nil {
		return -1
	}
	return m
}

func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	m, err := t.parse()
	if err != nil {
		return "", err
	}
	result := m + minutes
	if result < 0 || result > minutesPerDay {
		return "", fmt.Errorf("%w: %s%+d", ErrTimeOutOfRange, string(t), minutes)
	}
	return fromMinutes(result), nil
}

// MinutesUntil returns other - t in minutes.
func (t TimeString) MinutesUntil(other TimeString) int {
	return other.Minutes() - t.Minutes()
}

func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

func (t TimeString) Equal(other TimeString) bool {
	return t.Minutes() == other.Minutes()
}

func (t TimeString) IsZero() bool {
	return t == ""
}

func (t TimeString) String() string {
	return string(t)
}

// On combines the time of day with a calendar date in loc.
func (t TimeString) On(date time.Time, loc *time.Location) time.Time {
	y, mo, d := date.Date()
	m := t.Minutes()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, loc)
}

// Scan реализует sql.Scanner для колонок типа TIME
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidTimeString, src)
	}
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return string(t), nil
}

func (t *TimeString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = ""
		return nil
	}
	return t.scanString(s)
}

func (t *TimeString) scanString(s string) error {
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeString) parse() (int, error) {
	s := string(t)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	total := h*60 + m
	if total > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrTimeOutOfRange, s)
	}
	return total, nil
}

func fromMinutes(m int) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", m/60, m%60))
}
