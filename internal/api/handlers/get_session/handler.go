package get_session

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

const msgMissingTenant = "отсутствует ID тенанта"

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

// Handle GET /api/v1/sessions/{sessionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /sessions/{id} - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]

	view, err := h.useCase.Get(r.Context(), tenantID, sessionID)
	if err != nil {
		if errors.Is(err, booking_session.ErrSessionNotFound) {
			h.logger.Warn("GET /sessions/{id} - Session not found: session_id=%s", sessionID)
		} else {
			h.logger.Error("GET /sessions/{id} - Failed to get session: session_id=%s, error=%v", sessionID, err)
		}
		handlers.RespondSessionError(w, err, nil)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}
