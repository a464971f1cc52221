package domain

// Default configuration values
const (
	DefaultGranularityMinutes = 30
	DefaultTimezone           = "Asia/Seoul"
)

// Business validation constants
const (
	MinGranularityMinutes       = 5
	MaxGranularityMinutes       = 60
	MaxServiceDuration          = 8 * 60
	PhoneMinDigits              = 10
	PhoneMaxDigits              = 11
	MaxCustomerNameLength       = 100
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// AllStatuses все допустимые статусы бронирования
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusPendingPayment,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// InactiveStatuses статусы, которые не занимают слот
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
}
