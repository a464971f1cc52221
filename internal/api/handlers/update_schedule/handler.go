package update_schedule

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgMissingTenant      = "отсутствует ID тенанта"
	msgInvalidResourceID  = "некорректный ID сотрудника"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные расписания"
	msgResourceNotFound   = "сотрудник не найден"
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

// Handle PUT /api/v1/schedule и PUT /api/v1/resources/{resourceId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("PUT /schedule - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenant)
		return
	}

	resourceID, err := parseResourceID(mux.Vars(r)["resourceId"])
	if err != nil {
		h.logger.Warn("PUT /schedule - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	var req UpdateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	saved, err := h.service.Update(r.Context(), tenantID, req.ToServiceRequest(resourceID))
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("PUT /schedule - Validation failed: tenant_id=%d, error=%v", tenantID, err)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgInvalidData, err.Error())

		case errors.Is(err, schedule.ErrResourceNotFound):
			h.logger.Warn("PUT /schedule - Resource not found: tenant_id=%d, resource_id=%v", tenantID, resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		default:
			h.logger.Error("PUT /schedule - Failed to save schedule: tenant_id=%d, error=%v", tenantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /schedule - Schedule saved: tenant_id=%d, settings_id=%d, level=%s", tenantID, saved.ID, saved.Level)
	handlers.RespondJSON(w, http.StatusOK, saved)
}
