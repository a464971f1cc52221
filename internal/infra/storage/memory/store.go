// Package memory keeps every storage concern in process memory.
// It backs local runs without Postgres and the orchestrator's concurrency tests,
// returning the same sentinel errors as the Postgres repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/entitlement"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
)

type settingsKey struct {
	tenantID   int64
	resourceID int64 // 0 для настроек уровня тенанта
}

type blockKey struct {
	tenantID int64
	phone    string
}

// Store in-memory хранилище всех сущностей сервиса
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	nextBookingID  int64
	nextSettingsID int64
	bookings       map[int64]*domain.Booking
	entitlements   map[int64]*domain.Entitlement
	services       map[int64]domain.Service
	resources      map[int64]domain.Resource
	settings       map[settingsKey]domain.ResourceSettings
	blocked        map[blockKey]struct{}
}

func NewStore() *Store {
	return &Store{
		bookings:     make(map[int64]*domain.Booking),
		entitlements: make(map[int64]*domain.Entitlement),
		services:     make(map[int64]domain.Service),
		resources:    make(map[int64]domain.Resource),
		settings:     make(map[settingsKey]domain.ResourceSettings),
		blocked:      make(map[blockKey]struct{}),
	}
}

// --- seeding ---

func (s *Store) PutService(service domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[service.ID] = service
}

func (s *Store) PutResource(resource domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[resource.ID] = resource
}

func (s *Store) PutEntitlement(e domain.Entitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[e.ID] = &e
}

func (s *Store) PutSettings(settings domain.ResourceSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := settingsKey{tenantID: settings.TenantID}
	if settings.ResourceID != nil {
		key.resourceID = *settings.ResourceID
	}
	s.settings[key] = settings
}

func (s *Store) Block(tenantID int64, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[blockKey{tenantID: tenantID, phone: phone}] = struct{}{}
}

// Entitlement возвращает текущее состояние пакета
func (s *Store) Entitlement(id int64) (domain.Entitlement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entitlements[id]
	if !ok {
		return domain.Entitlement{}, false
	}
	return *e, true
}

// Bookings возвращает все бронирования, отсортированные по ID
func (s *Store) Bookings() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- bookings ---

func (s *Store) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bookings {
		if existing.IsActive() &&
			existing.ResourceID == b.ResourceID &&
			sameDate(existing.BookingDate, b.BookingDate) &&
			existing.StartTime == b.StartTime {
			return nil, fmt.Errorf("%w: resource=%d date=%s time=%s", booking.ErrSlotNotAvailable,
				b.ResourceID, b.BookingDate.Format(domain.DateFormat), b.StartTime)
		}
	}

	s.nextBookingID++
	created := *b
	created.ID = s.nextBookingID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.bookings[created.ID] = &created

	id := created.ID
	journal(ctx, func() {
		delete(s.bookings, id)
	})

	b.ID = created.ID
	b.CreatedAt = created.CreatedAt
	b.UpdatedAt = created.UpdatedAt
	return b, nil
}

func (s *Store) GetByID(_ context.Context, tenantID, id int64) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, booking.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (s *Store) ListNonCancelled(_ context.Context, tenantID, resourceID int64, date time.Time) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.TenantID == tenantID && b.ResourceID == resourceID && sameDate(b.BookingDate, date) && b.IsActive() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.IsBefore(out[j].StartTime) })
	return out, nil
}

// LockResourceDay все транзакции памяти и так выполняются последовательно
func (s *Store) LockResourceDay(ctx context.Context, _ int64, _ time.Time) error {
	if !inTx(ctx) {
		return fmt.Errorf("%w: LockResourceDay", booking.ErrTransaction)
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.TenantID != tenantID {
		return booking.ErrBookingNotFound
	}
	prev := b.Status
	b.Status = status
	b.UpdatedAt = time.Now()
	journal(ctx, func() { b.Status = prev })
	return nil
}

func (s *Store) Cancel(ctx context.Context, tenantID, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.TenantID != tenantID {
		return booking.ErrBookingNotFound
	}
	prev := *b
	now := time.Now()
	b.Status = domain.StatusCancelled
	b.CancellationReason = &reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	journal(ctx, func() { *b = prev })
	return nil
}

func (s *Store) CountNoShows(_ context.Context, tenantID int64, phone string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, b := range s.bookings {
		if b.TenantID == tenantID && b.IdentityPhone == phone && b.Status == domain.StatusNoShow {
			count++
		}
	}
	return count, nil
}

// --- entitlements ---

func (s *Store) ListActive(_ context.Context, tenantID, customerID int64, now time.Time) ([]domain.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Entitlement, 0)
	for _, e := range s.entitlements {
		if e.TenantID != tenantID || e.CustomerID != customerID || e.RemainingQuantity <= 0 {
			continue
		}
		if e.ExpiresAt != nil && !now.Before(*e.ExpiresAt) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DecrementIfPositive(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entitlements[id]
	if !ok || e.RemainingQuantity <= 0 {
		return fmt.Errorf("%w: id=%d", entitlement.ErrEntitlementExhausted, id)
	}
	e.RemainingQuantity--
	journal(ctx, func() { e.RemainingQuantity++ })
	return nil
}

// --- eligibility ---

func (s *Store) IsListed(_ context.Context, tenantID int64, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocked[blockKey{tenantID: tenantID, phone: phone}]
	return ok, nil
}

// --- catalog ---

func (s *Store) ListServices(_ context.Context, tenantID int64) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Service, 0)
	for _, svc := range s.services {
		if svc.TenantID == tenantID && svc.IsActive {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetService(_ context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[serviceID]
	if !ok || svc.TenantID != tenantID || !svc.IsActive {
		return nil, catalog.ErrServiceNotFound
	}
	return &svc, nil
}

func (s *Store) GetResource(_ context.Context, tenantID, resourceID int64) (*domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[resourceID]
	if !ok || r.TenantID != tenantID || !r.IsActive {
		return nil, catalog.ErrResourceNotFound
	}
	return &r, nil
}

func (s *Store) ListResourcesForService(_ context.Context, tenantID, serviceID int64) ([]domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Resource, 0)
	for _, r := range s.resources {
		if r.TenantID == tenantID && r.CanPerform(serviceID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- schedule ---

func (s *Store) GetSettingsWithHierarchy(_ context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if resourceID != nil {
		if settings, ok := s.settings[settingsKey{tenantID: tenantID, resourceID: *resourceID}]; ok {
			return &settings, nil
		}
	}
	if settings, ok := s.settings[settingsKey{tenantID: tenantID}]; ok {
		return &settings, nil
	}
	return nil, schedule.ErrSettingsNotFound
}

func (s *Store) Upsert(_ context.Context, settings *domain.ResourceSettings) (*domain.ResourceSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := settingsKey{tenantID: settings.TenantID}
	if settings.ResourceID != nil {
		key.resourceID = *settings.ResourceID
	}

	now := time.Now()
	saved := *settings
	if existing, ok := s.settings[key]; ok {
		saved.ID, saved.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		s.nextSettingsID++
		saved.ID, saved.CreatedAt = s.nextSettingsID, now
	}
	saved.UpdatedAt = now
	s.settings[key] = saved

	return &saved, nil
}

func sameDate(a, b time.Time) bool {
	return a.Format(domain.DateFormat) == b.Format(domain.DateFormat)
}
