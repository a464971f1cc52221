package sessionstore

import "errors"

var (
	// ErrSessionNotFound сессия не существует или истекла по TTL
	ErrSessionNotFound = errors.New("sessionstore: session not found")

	// ErrChargeNotFound платёж не привязан ни к одной сессии
	ErrChargeNotFound = errors.New("sessionstore: charge not found")

	// ErrStore ошибка обращения к хранилищу
	ErrStore = errors.New("sessionstore: store operation failed")

	// ErrDecode сохранённая сессия не читается
	ErrDecode = errors.New("sessionstore: failed to decode session")
)
