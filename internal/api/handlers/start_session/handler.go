package start_session

import (
	"net/http"

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

// Handle POST /api/v1/sessions
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("POST /sessions - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	view, err := h.useCase.Start(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("POST /sessions - Failed to start session: tenant_id=%d, error=%v", tenantID, err)
		handlers.RespondSessionError(w, err, nil)
		return
	}

	h.logger.Info("POST /sessions - Session started: tenant_id=%d, session_id=%s", tenantID, view.ID)
	handlers.RespondJSON(w, http.StatusCreated, view)
}
