package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

type mockEmail struct{ mock.Mock }

func (m *mockEmail) Send(ctx context.Context, msg EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) Send(ctx context.Context, msg SMSMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func confirmedBooking(channel domain.ContactChannel) domain.Booking {
	return domain.Booking{
		ID:             42,
		BookingDate:    time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
		Status:         domain.StatusConfirmed,
		ServiceName:    "Cut",
		CustomerName:   "Kim",
		CustomerPhone:  "01012345678",
		ContactChannel: channel,
		CustomerEmail:  ptr.Ptr("kim@example.com"),
	}
}

func TestNotifier_RoutesByChannel(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("Send", mock.Anything, mock.MatchedBy(func(msg EmailMessage) bool {
		return msg.To == "kim@example.com" && msg.Subject == "Booking confirmed: Cut"
	})).Return(nil).Once()
	sms.On("Send", mock.Anything, mock.MatchedBy(func(msg SMSMessage) bool {
		return msg.To == "01012345678" && msg.Channel == "kakao"
	})).Return(nil).Once()

	n := NewNotifier(email, sms, logger.Discard())
	n.BookingConfirmed(confirmedBooking(domain.ChannelEmail))
	n.BookingConfirmed(confirmedBooking(domain.ChannelKakao))
	n.Wait()

	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestNotifier_FailureDoesNotPropagate(t *testing.T) {
	sms := &mockSMS{}
	sms.On("Send", mock.Anything, mock.Anything).Return(errors.New("gateway down")).Once()

	n := NewNotifier(nil, sms, logger.Discard())
	assert.NotPanics(t, func() {
		n.BookingConfirmed(confirmedBooking(domain.ChannelSMS))
		n.Wait()
	})
	sms.AssertExpectations(t)
}

func TestNotifier_DeliverWithoutRecipient(t *testing.T) {
	n := NewNotifier(&mockEmail{}, &mockSMS{}, logger.Discard())
	b := confirmedBooking(domain.ChannelEmail)
	b.CustomerEmail = nil

	err := n.deliver(context.Background(), b)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestConfirmationText_PendingPayment(t *testing.T) {
	b := confirmedBooking(domain.ChannelSMS)
	b.Status = domain.StatusPendingPayment

	assert.Equal(t, "Kim, your Cut is booked for 2025-01-06 at 10:00. Payment is due at the visit.", confirmationText(b))
}

func TestSMSClient_Send(t *testing.T) {
	var (
		mu  sync.Mutex
		got SMSMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, "key", "0215880000", time.Second)
	require.NoError(t, c.Send(context.Background(), SMSMessage{To: "01012345678", Channel: "sms", Text: "hi"}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "0215880000", got.From)
	assert.Equal(t, "hi", got.Text)
}

func TestSMSClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewSMSClient(srv.URL, "key", "", time.Second).Send(context.Background(), SMSMessage{To: "01012345678"})
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "noreply@example.com"}, logger.Discard()))

	var sender *SendGridSender
	err := sender.Send(context.Background(), EmailMessage{To: "kim@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendGridSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "sg-key",
		FromEmail: "noreply@example.com",
		Host:      srv.URL,
	}, logger.Discard())

	err := sender.Send(context.Background(), EmailMessage{To: "kim@example.com", Subject: "Hi", Body: "Body"})
	assert.NoError(t, err)
}
