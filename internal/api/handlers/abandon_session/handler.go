package abandon_session

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
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

// Handle DELETE /api/v1/sessions/{sessionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /sessions/{id} - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]

	view, err := h.useCase.Abandon(r.Context(), tenantID, sessionID)
	if err != nil {
		h.logger.Warn("DELETE /sessions/{id} - Failed to abandon: session_id=%s, error=%v", sessionID, err)
		handlers.RespondSessionError(w, err, view)
		return
	}

	h.logger.Info("DELETE /sessions/{id} - Session abandoned: session_id=%s", sessionID)
	handlers.RespondJSON(w, http.StatusOK, view)
}
