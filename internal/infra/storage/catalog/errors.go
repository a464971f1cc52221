package catalog

import "errors"

var (
	// ErrServiceNotFound услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("catalog.repository: service not found")

	// ErrResourceNotFound сотрудник не найден или неактивен
	ErrResourceNotFound = errors.New("catalog.repository: resource not found")

	ErrBuildQuery = errors.New("catalog.repository: failed to build query")
	ErrExecQuery  = errors.New("catalog.repository: failed to execute query")
	ErrScanRow    = errors.New("catalog.repository: failed to scan row")
)
