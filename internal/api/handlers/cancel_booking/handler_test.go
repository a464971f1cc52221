package cancel_booking

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

func (m *mockService) Cancel(ctx context.Context, tenantID, bookingID int64, req *models.CancelBookingRequest) error {
	return m.Called(ctx, tenantID, bookingID, req).Error(0)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "cancelled", path: "/bookings/10/cancel", status: http.StatusOK},
		{name: "not found", path: "/bookings/10/cancel", err: bookings.ErrBookingNotFound, status: http.StatusNotFound},
		{name: "already finished", path: "/bookings/10/cancel", err: bookings.ErrCannotCancel, status: http.StatusConflict},
		{name: "bad id", path: "/bookings/x/cancel", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Cancel", mock.Anything, int64(1), int64(10), &models.CancelBookingRequest{CancellationReason: "sick"}).Return(tt.err)

			r := mux.NewRouter()
			r.Use(middleware.Tenant)
			r.HandleFunc("/bookings/{bookingId}/cancel", NewHandler(svc, logger.Discard()).Handle).Methods(http.MethodPatch)

			req := httptest.NewRequest(http.MethodPatch, tt.path, bytes.NewBufferString(`{"cancellationReason":"sick"}`))
			req.Header.Set(middleware.TenantHeader, "1")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
