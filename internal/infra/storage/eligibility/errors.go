package eligibility

import "errors"

var (
	ErrBuildQuery = errors.New("eligibility.repository: failed to build query")
	ErrScanRow    = errors.New("eligibility.repository: failed to scan row")
)
