package commit_session

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
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

// Handle POST /api/v1/sessions/{sessionId}/commit
// 201 - запись создана, 202 - выставлен счёт, запись появится после оплаты
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("POST /sessions/{id}/commit - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]

	var req CommitSessionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /sessions/{id}/commit - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	view, err := h.useCase.Commit(r.Context(), tenantID, sessionID, req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, booking_session.ErrUpstreamUnavailable),
			errors.Is(err, booking_session.ErrSettlementFailure):
			h.logger.Error("POST /sessions/{id}/commit - Commit failed: session_id=%s, method=%s, error=%v",
				sessionID, req.Method, err)

		default:
			h.logger.Warn("POST /sessions/{id}/commit - Commit rejected: session_id=%s, method=%s, error=%v",
				sessionID, req.Method, err)
		}
		handlers.RespondSessionError(w, err, view)
		return
	}

	if view.State == domain.StateAwaitingPayment {
		h.logger.Info("POST /sessions/{id}/commit - Awaiting payment: session_id=%s", sessionID)
		handlers.RespondJSON(w, http.StatusAccepted, view)
		return
	}

	h.logger.Info("POST /sessions/{id}/commit - Booking committed: session_id=%s, booking_id=%d", sessionID, view.Booking.ID)
	handlers.RespondJSON(w, http.StatusCreated, view)
}
