package get_availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type mockUseCase struct{ mock.Mock }

func (m *mockUseCase) Execute(ctx context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*getAvailableSlots.Response)
	return resp, args.Error(1)
}

func newRouter(uc *mockUseCase) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Tenant)
	r.HandleFunc("/resources/{resourceId}/availability", NewHandler(uc, logger.Discard()).Handle).Methods(http.MethodGet)
	return r
}

func do(r http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.TenantHeader, "1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_ReturnsSlots(t *testing.T) {
	uc := &mockUseCase{}
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	uc.On("Execute", mock.Anything, &getAvailableSlots.Request{
		TenantID: 1, ResourceID: 5, Date: date, DurationMinutes: 60,
	}).Return(&getAvailableSlots.Response{
		Date: date, ResourceID: 5, Timezone: "Asia/Seoul", GranularityMinutes: 30, DurationMinutes: 60,
		Slots: []getAvailableSlots.Slot{{StartTime: "09:00", Available: true}, {StartTime: "09:30", Available: false}},
	}, nil)

	rec := do(newRouter(uc), "/resources/5/availability?date=2026-03-09&duration=60")
	require.Equal(t, http.StatusOK, rec.Code)

	var body AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-09", body.Date)
	assert.Equal(t, "Asia/Seoul", body.Timezone)
	assert.Equal(t, []AvailableSlot{{StartTime: "09:00", Available: true}, {StartTime: "09:30", Available: false}}, body.Slots)
	uc.AssertExpectations(t)
}

func TestHandle_BadQuery(t *testing.T) {
	tests := []string{
		"/resources/abc/availability?date=2026-03-09&duration=60",
		"/resources/5/availability?duration=60",
		"/resources/5/availability?date=2026-03-09",
		"/resources/5/availability?date=09.03.2026&duration=60",
		"/resources/5/availability?date=2026-03-09&duration=long",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			uc := &mockUseCase{}
			rec := do(newRouter(uc), target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_InvalidDurationFromUseCase(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: duration", getAvailableSlots.ErrInvalidInput))

	rec := do(newRouter(uc), "/resources/5/availability?date=2026-03-09&duration=9999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
