package get_resource_bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type mockService struct{ mock.Mock }

func (m *mockService) ListForResourceDay(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*models.BookingResponse, error) {
	args := m.Called(ctx, tenantID, resourceID, date)
	list, _ := args.Get(0).([]*models.BookingResponse)
	return list, args.Error(1)
}

func get(svc *mockService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Tenant)
	r.HandleFunc("/resources/{resourceId}/bookings", NewHandler(svc, logger.Discard()).Handle).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.TenantHeader, "2")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_ReturnsDaySheet(t *testing.T) {
	svc := &mockService{}
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	svc.On("ListForResourceDay", mock.Anything, int64(2), int64(5), day).Return([]*models.BookingResponse{
		{ID: 1, StartTime: "10:00", Status: "confirmed"},
		{ID: 2, StartTime: "13:00", Status: "pending"},
	}, nil)

	rec := get(svc, "/resources/5/bookings?date=2026-03-09")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "13:00", body[1].StartTime)
}

func TestHandle_InvalidParams(t *testing.T) {
	for _, target := range []string{
		"/resources/5/bookings",
		"/resources/5/bookings?date=09.03.2026",
		"/resources/abc/bookings?date=2026-03-09",
		"/resources/0/bookings?date=2026-03-09",
	} {
		svc := &mockService{}
		rec := get(svc, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		svc.AssertNotCalled(t, "ListForResourceDay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestHandle_ServiceFailure(t *testing.T) {
	svc := &mockService{}
	svc.On("ListForResourceDay", mock.Anything, int64(2), int64(5), mock.Anything).Return(nil, errors.New("boom"))

	rec := get(svc, "/resources/5/bookings?date=2026-03-09")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
