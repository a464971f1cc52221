package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return validateDuration(req.DurationMinutes)
}

func validateCheckRequest(req *CheckRequest) error {
	if err := validateRequest(&Request{
		TenantID:        req.TenantID,
		ResourceID:      req.ResourceID,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
	}); err != nil {
		return err
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	return nil
}

func validateDuration(duration int) error {
	if duration <= 0 || duration > domain.MaxServiceDuration {
		return fmt.Errorf("%w: duration must be within 1..%d minutes", ErrInvalidInput, domain.MaxServiceDuration)
	}
	return nil
}
