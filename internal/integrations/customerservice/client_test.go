package customerservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func TestGetByPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/tenants/1/customers", r.URL.Path)
		assert.Equal(t, "01012345678", r.URL.Query().Get("phone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":100,"name":"Kim","phone":"01012345678","email":"kim@example.com"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.Discard())
	customer, err := c.GetByPhone(context.Background(), 1, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, int64(100), customer.ID)
	assert.Equal(t, "kim@example.com", customer.Email)
}

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantGuest bool
	}{
		{name: "known customer", status: http.StatusOK, body: `{"id":100,"name":"Kim"}`, wantGuest: false},
		{name: "unknown phone", status: http.StatusNotFound, wantGuest: true},
		{name: "service down", status: http.StatusBadGateway, body: "upstream", wantGuest: true},
		{name: "garbage body", status: http.StatusOK, body: "{", wantGuest: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			identity := NewClient(srv.URL, time.Second, logger.Discard()).
				ResolveIdentity(context.Background(), 1, "01012345678")

			assert.Equal(t, tt.wantGuest, identity.IsGuest())
			assert.Equal(t, "01012345678", identity.Phone)
		})
	}
}
