package get_schedule

import (
	"fmt"
	"strconv"
)

// parseResourceID пустой параметр пути означает настройки тенанта
func parseResourceID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid resourceId %q", raw)
	}
	return &id, nil
}
