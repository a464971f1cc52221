package get_schedule

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const (
	msgMissingTenant     = "отсутствует ID тенанта"
	msgInvalidResourceID = "некорректный ID сотрудника"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/schedule и GET /api/v1/resources/{resourceId}/schedule
// Отдаёт действующие настройки с учётом иерархии
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /schedule - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	resourceID, err := parseResourceID(mux.Vars(r)["resourceId"])
	if err != nil {
		h.logger.Warn("GET /schedule - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	schedule, err := h.service.GetEffective(r.Context(), tenantID, resourceID)
	if err != nil {
		h.logger.Error("GET /schedule - Failed to get schedule: tenant_id=%d, resource_id=%v, error=%v",
			tenantID, resourceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /schedule - Schedule retrieved: tenant_id=%d, level=%s", tenantID, schedule.Level)
	handlers.RespondJSON(w, http.StatusOK, schedule)
}
