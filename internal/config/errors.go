package config

import "errors"

var (
	// ErrDecode файл конфигурации не читается или не разбирается
	ErrDecode = errors.New("config: decode failed")

	// ErrInvalidValue значение вне допустимого диапазона
	ErrInvalidValue = errors.New("config: invalid value")
)
