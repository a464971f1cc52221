package get_available_slots

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrUpstreamUnavailable возвращается строгой проверкой слота, если хранилище недоступно
	ErrUpstreamUnavailable = errors.New("get_available_slots: upstream unavailable")
)
