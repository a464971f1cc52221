package advance_session

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

const (
	msgMissingTenant      = "отсутствует ID тенанта"
	msgInvalidRequestBody = "некорректное тело запроса"
)

type Handler struct {
	useCase SessionUseCase
	logger  Logger
}

func NewHandler(useCase SessionUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/sessions/{sessionId}/advance
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("POST /sessions/{id}/advance - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]

	// Декодируем body
	var req AdvanceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /sessions/{id}/advance - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	view, err := h.useCase.Advance(r.Context(), tenantID, sessionID, req.ToStepInput())
	if err != nil {
		switch {
		case errors.Is(err, booking_session.ErrValidation),
			errors.Is(err, booking_session.ErrSlotUnavailable),
			errors.Is(err, booking_session.ErrEligibilityBlocked),
			errors.Is(err, booking_session.ErrInvalidTransition),
			errors.Is(err, booking_session.ErrSessionNotFound):
			h.logger.Warn("POST /sessions/{id}/advance - Step rejected: session_id=%s, error=%v", sessionID, err)

		default:
			h.logger.Error("POST /sessions/{id}/advance - Failed to advance: session_id=%s, error=%v", sessionID, err)
		}
		handlers.RespondSessionError(w, err, view)
		return
	}

	h.logger.Info("POST /sessions/{id}/advance - Session advanced: session_id=%s, state=%s", sessionID, view.State)
	handlers.RespondJSON(w, http.StatusOK, view)
}
