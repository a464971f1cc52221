package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

func TestSessionErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{booking_session.ErrValidation, http.StatusUnprocessableEntity},
		{booking_session.ErrEligibilityBlocked, http.StatusForbidden},
		{booking_session.ErrSlotUnavailable, http.StatusConflict},
		{booking_session.ErrEntitlementExhausted, http.StatusConflict},
		{booking_session.ErrSettlementFailure, http.StatusBadGateway},
		{booking_session.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{booking_session.ErrSessionNotFound, http.StatusNotFound},
		{booking_session.ErrInvalidTransition, http.StatusConflict},
		{booking_session.ErrCommitInProgress, http.StatusConflict},
		{booking_session.ErrInvalidPaymentEvent, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("%w: Commit - detail", tt.err)
			status, msg := SessionErrorStatus(wrapped)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestRespondSessionError_IncludesView(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSessionError(rec, booking_session.ErrSlotUnavailable, &booking_session.View{ID: "s-1"})

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error   string               `json:"error"`
		Details booking_session.View `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s-1", body.Details.ID)
}
