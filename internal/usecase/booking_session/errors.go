package booking_session

import "errors"

var (
	// ErrValidation ввод шага некорректен, сессия остаётся в текущем состоянии
	ErrValidation = errors.New("booking_session: validation failed")

	// ErrEligibilityBlocked клиент не допущен к записи, сессия завершена
	ErrEligibilityBlocked = errors.New("booking_session: customer is not eligible to book")

	// ErrSlotUnavailable слот занят, сессия возвращена к выбору слота
	ErrSlotUnavailable = errors.New("booking_session: slot is no longer available")

	// ErrEntitlementExhausted пакет исчерпан, сессия возвращена к выбору способа оплаты
	ErrEntitlementExhausted = errors.New("booking_session: entitlement exhausted")

	// ErrSettlementFailure платёжный шлюз отказал, сессия прервана
	ErrSettlementFailure = errors.New("booking_session: settlement failed")

	// ErrUpstreamUnavailable хранилище или внешний сервис недоступны, запрос можно повторить
	ErrUpstreamUnavailable = errors.New("booking_session: upstream unavailable")

	// ErrSessionNotFound сессия не существует, истекла или принадлежит другому тенанту
	ErrSessionNotFound = errors.New("booking_session: session not found")

	// ErrInvalidTransition действие недопустимо в текущем состоянии сессии
	ErrInvalidTransition = errors.New("booking_session: action not allowed in current state")

	// ErrCommitInProgress фиксация этой сессии уже выполняется
	ErrCommitInProgress = errors.New("booking_session: commit already in progress")

	// ErrInvalidPaymentEvent событие платёжного шлюза не прошло проверку
	ErrInvalidPaymentEvent = errors.New("booking_session: invalid payment event")
)

// Коды ошибок шага, которые видит клиент в lastError
const (
	CodeInvalidPhone         = "invalid_phone"
	CodeInvalidInput         = "invalid_input"
	CodeServiceUnavailable   = "service_unavailable"
	CodeResourceUnavailable  = "resource_unavailable"
	CodeResourceIncapable    = "resource_incapable"
	CodeSlotTaken            = "slot_taken"
	CodeInvalidContact       = "invalid_contact"
	CodeConsentRequired      = "consent_required"
	CodeMethodNotAllowed     = "method_not_allowed"
	CodeEntitlementExhausted = "entitlement_exhausted"
)
