package payment

import "errors"

var (
	// ErrChargeFailed платёжный шлюз не создал оплату
	ErrChargeFailed = errors.New("payment: failed to initiate charge")

	// ErrInvalidSignature подпись события не совпала с секретом вебхука
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	// ErrInvalidEvent событие не удалось разобрать
	ErrInvalidEvent = errors.New("payment: invalid webhook event")

	// ErrRefundFailed возврат не выполнен
	ErrRefundFailed = errors.New("payment: refund failed")
)
