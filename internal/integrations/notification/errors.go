package notification

import "errors"

var (
	// ErrNotConfigured канал уведомлений не настроен
	ErrNotConfigured = errors.New("notification: channel not configured")

	// ErrSendFailed провайдер не принял сообщение
	ErrSendFailed = errors.New("notification: send failed")

	// ErrNoRecipient у брони нет адреса для выбранного канала
	ErrNoRecipient = errors.New("notification: no recipient for channel")
)
