package get_resource_bookings

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// parseParams разбирает resourceId из пути и обязательный date из query
func parseParams(resourceIDStr, dateStr string) (int64, time.Time, error) {
	resourceID, err := strconv.ParseInt(resourceIDStr, 10, 64)
	if err != nil || resourceID <= 0 {
		return 0, time.Time{}, fmt.Errorf("invalid resourceId %q", resourceIDStr)
	}

	if dateStr == "" {
		return 0, time.Time{}, fmt.Errorf("date is required")
	}
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid date: %w", err)
	}

	return resourceID, date, nil
}
