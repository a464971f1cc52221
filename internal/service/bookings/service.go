package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// Service сервис для работы с созданными бронированиями
type Service struct {
	bookingRepo BookingRepository
	refunder    Refunder
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
// refunder может быть nil, тогда возврат при отмене только логируется
func NewService(bookingRepo BookingRepository, refunder Refunder, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		refunder:    refunder,
		logger:      logger,
	}
}

// GetByID получает бронирование тенанта по ID
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.BookingResponse, error) {
	booking, err := s.load(ctx, "GetByID", tenantID, id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// Cancel отменяет бронирование и освобождает слот
// Для предоплаченной брони инициируется возврат платежа
func (s *Service) Cancel(ctx context.Context, tenantID, bookingID int64, req *models.CancelBookingRequest) error {
	s.logger.Info("Cancel: cancelling booking id=%d tenant=%d", bookingID, tenantID)

	reason := strings.TrimSpace(req.CancellationReason)
	if utf8.RuneCountInString(reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason too long", ErrInvalidInput)
	}

	booking, err := s.load(ctx, "Cancel", tenantID, bookingID)
	if err != nil {
		return err
	}

	if !booking.CanBeCancelled() {
		s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
		return ErrCannotCancel
	}

	if err := s.bookingRepo.Cancel(ctx, tenantID, bookingID, reason); err != nil {
		return s.repoError("Cancel", bookingID, err)
	}

	if booking.Outcome == domain.OutcomePaidCharge && booking.PaymentReference != nil {
		s.refund(ctx, booking)
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d", bookingID)
	return nil
}

// UpdateStatus обновляет статус бронирования (подтверждение, визит, неявка)
// Неявки учитываются при проверке допуска клиента к записи
func (s *Service) UpdateStatus(ctx context.Context, tenantID, bookingID int64, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: updating booking id=%d to status=%s", bookingID, req.Status)

	newStatus, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%d", req.Status, bookingID)
		return fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	if newStatus == domain.StatusCancelled {
		return fmt.Errorf("%w: use cancel to cancel a booking", ErrInvalidInput)
	}

	booking, err := s.load(ctx, "UpdateStatus", tenantID, bookingID)
	if err != nil {
		return err
	}

	if !booking.CanTransitionTo(newStatus) {
		s.logger.Warn("UpdateStatus: booking id=%d cannot move from %s to %s", bookingID, booking.Status, newStatus)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
	}

	if err := s.bookingRepo.UpdateStatus(ctx, tenantID, bookingID, newStatus); err != nil {
		return s.repoError("UpdateStatus", bookingID, err)
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%d to status=%s", bookingID, newStatus)
	return nil
}

// ListForResourceDay лист записи ресурса на дату: все неотменённые брони по времени начала
func (s *Service) ListForResourceDay(ctx context.Context, tenantID, resourceID int64, date time.Time) ([]*models.BookingResponse, error) {
	if resourceID <= 0 || date.IsZero() {
		return nil, fmt.Errorf("%w: resourceID and date are required", ErrInvalidInput)
	}

	list, err := s.bookingRepo.ListNonCancelled(ctx, tenantID, resourceID, date)
	if err != nil {
		s.logger.Error("ListForResourceDay: repository error for resource=%d date=%s: %v",
			resourceID, date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListForResourceDay - repository error: %v", ErrInternal, err)
	}

	result := make([]*models.BookingResponse, 0, len(list))
	for _, b := range list {
		result = append(result, models.FromDomainBooking(b))
	}

	s.logger.Info("ListForResourceDay: %d bookings for resource=%d date=%s",
		len(result), resourceID, date.Format(domain.DateFormat))
	return result, nil
}

func (s *Service) load(ctx context.Context, op string, tenantID, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, s.repoError(op, id, err)
	}
	return booking, nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		s.logger.Warn("%s: booking id=%d not found", op, id)
		return ErrBookingNotFound
	}
	s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) refund(ctx context.Context, booking *domain.Booking) {
	if s.refunder == nil {
		s.logger.Warn("Cancel: booking id=%d was prepaid (%s), refund must be issued manually", booking.ID, *booking.PaymentReference)
		return
	}
	if err := s.refunder.Refund(ctx, *booking.PaymentReference); err != nil {
		s.logger.Error("Cancel: refund failed for booking id=%d: %v", booking.ID, err)
	}
}
