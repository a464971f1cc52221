package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Service пакеты услуг клиента и жёсткая проверка допуска к записи
type Service struct {
	entitlements    EntitlementRepository
	blockList       BlockListRepository
	noShows         NoShowCounter
	noShowThreshold int
	logger          Logger
}

// NewService noShowThreshold <= 0 отключает блокировку по неявкам
func NewService(
	entitlements EntitlementRepository,
	blockList BlockListRepository,
	noShows NoShowCounter,
	noShowThreshold int,
	logger Logger,
) *Service {
	return &Service{
		entitlements:    entitlements,
		blockList:       blockList,
		noShows:         noShows,
		noShowThreshold: noShowThreshold,
		logger:          logger,
	}
}

// IsBlocked клиент в чёрном списке тенанта или набрал порог неявок
func (s *Service) IsBlocked(ctx context.Context, tenantID int64, phone string) (bool, error) {
	listed, err := s.blockList.IsListed(ctx, tenantID, phone)
	if err != nil {
		s.logger.Error("IsBlocked: block list lookup failed for tenant=%d: %v", tenantID, err)
		return false, fmt.Errorf("%w: IsBlocked - block list: %v", ErrUnavailable, err)
	}
	if listed {
		s.logger.Info("IsBlocked: phone is on the block list of tenant=%d", tenantID)
		return true, nil
	}

	if s.noShowThreshold <= 0 {
		return false, nil
	}

	count, err := s.noShows.CountNoShows(ctx, tenantID, phone)
	if err != nil {
		s.logger.Error("IsBlocked: no-show lookup failed for tenant=%d: %v", tenantID, err)
		return false, fmt.Errorf("%w: IsBlocked - no-shows: %v", ErrUnavailable, err)
	}
	if count >= s.noShowThreshold {
		s.logger.Info("IsBlocked: %d no-shows reach threshold %d for tenant=%d", count, s.noShowThreshold, tenantID)
		return true, nil
	}

	return false, nil
}

// EntitlementsFor активные пакеты клиента; у гостя пакетов нет
func (s *Service) EntitlementsFor(ctx context.Context, tenantID int64, customer domain.CustomerIdentity, now time.Time) ([]domain.Entitlement, error) {
	if customer.IsGuest() {
		return []domain.Entitlement{}, nil
	}

	list, err := s.entitlements.ListActive(ctx, tenantID, customer.CustomerID, now)
	if err != nil {
		s.logger.Error("EntitlementsFor: lookup failed for customer=%d: %v", customer.CustomerID, err)
		return nil, fmt.Errorf("%w: EntitlementsFor: %v", ErrUnavailable, err)
	}
	return list, nil
}

// Covering первый пакет, которым можно оплатить услугу
func Covering(list []domain.Entitlement, serviceID int64, now time.Time) (domain.Entitlement, bool) {
	for _, e := range list {
		if e.Covers(serviceID, now) {
			return e, true
		}
	}
	return domain.Entitlement{}, false
}

// AllCovering все пакеты, которыми можно оплатить услугу, в порядке списка
func AllCovering(list []domain.Entitlement, serviceID int64, now time.Time) []domain.Entitlement {
	out := make([]domain.Entitlement, 0, len(list))
	for _, e := range list {
		if e.Covers(serviceID, now) {
			out = append(out, e)
		}
	}
	return out
}
