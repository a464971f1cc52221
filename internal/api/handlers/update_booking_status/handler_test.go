package update_booking_status

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type mockService struct{ mock.Mock }

func (m *mockService) UpdateStatus(ctx context.Context, tenantID, bookingID int64, req *models.UpdateStatusRequest) error {
	return m.Called(ctx, tenantID, bookingID, req).Error(0)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "updated", status: http.StatusOK},
		{name: "unknown status", err: bookings.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "not allowed", err: bookings.ErrInvalidTransition, status: http.StatusConflict},
		{name: "not found", err: bookings.ErrBookingNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("UpdateStatus", mock.Anything, int64(1), int64(10), &models.UpdateStatusRequest{Status: "no_show"}).Return(tt.err)

			r := mux.NewRouter()
			r.Use(middleware.Tenant)
			r.HandleFunc("/bookings/{bookingId}/status", NewHandler(svc, logger.Discard()).Handle).Methods(http.MethodPatch)

			req := httptest.NewRequest(http.MethodPatch, "/bookings/10/status", bytes.NewBufferString(`{"status":"no_show"}`))
			req.Header.Set(middleware.TenantHeader, "1")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
