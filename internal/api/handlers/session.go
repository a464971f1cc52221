package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

const (
	msgValidation       = "некорректные данные шага"
	msgBlocked          = "запись для этого клиента недоступна"
	msgSlotUnavailable  = "выбранное время уже занято"
	msgExhausted        = "пакет посещений исчерпан"
	msgSettlement       = "платёжная система отклонила операцию"
	msgUpstream         = "сервис временно недоступен, повторите запрос"
	msgSessionNotFound  = "сессия не найдена"
	msgInvalidAction    = "действие недоступно на текущем шаге"
	msgCommitInProgress = "запись уже оформляется"
	msgInvalidEvent     = "некорректное событие платёжной системы"
)

// SessionErrorStatus HTTP статус и сообщение для ошибки сессии записи
func SessionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, booking_session.ErrValidation):
		return http.StatusUnprocessableEntity, msgValidation
	case errors.Is(err, booking_session.ErrEligibilityBlocked):
		return http.StatusForbidden, msgBlocked
	case errors.Is(err, booking_session.ErrSlotUnavailable):
		return http.StatusConflict, msgSlotUnavailable
	case errors.Is(err, booking_session.ErrEntitlementExhausted):
		return http.StatusConflict, msgExhausted
	case errors.Is(err, booking_session.ErrSettlementFailure):
		return http.StatusBadGateway, msgSettlement
	case errors.Is(err, booking_session.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, msgUpstream
	case errors.Is(err, booking_session.ErrSessionNotFound):
		return http.StatusNotFound, msgSessionNotFound
	case errors.Is(err, booking_session.ErrInvalidTransition):
		return http.StatusConflict, msgInvalidAction
	case errors.Is(err, booking_session.ErrCommitInProgress):
		return http.StatusConflict, msgCommitInProgress
	case errors.Is(err, booking_session.ErrInvalidPaymentEvent):
		return http.StatusBadRequest, msgInvalidEvent
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}

// RespondSessionError пишет ошибку сессии; представление сессии, если есть, идёт в details
func RespondSessionError(w http.ResponseWriter, err error, view *booking_session.View) {
	status, message := SessionErrorStatus(err)
	if view == nil {
		RespondError(w, status, message, nil)
		return
	}
	RespondError(w, status, message, view)
}
