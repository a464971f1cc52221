package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// Service управление рабочим расписанием тенанта и отдельных сотрудников
type Service struct {
	settingsRepo SettingsRepository
	catalog      ResourceCatalog
	logger       Logger
}

func NewService(settingsRepo SettingsRepository, catalog ResourceCatalog, logger Logger) *Service {
	return &Service{
		settingsRepo: settingsRepo,
		catalog:      catalog,
		logger:       logger,
	}
}

// GetEffective возвращает настройки, по которым считается доступность
// Приоритет: сотрудник > тенант > значения по умолчанию
func (s *Service) GetEffective(ctx context.Context, tenantID int64, resourceID *int64) (*models.ScheduleResponse, error) {
	settings, err := s.settingsRepo.GetSettingsWithHierarchy(ctx, tenantID, resourceID)
	if errors.Is(err, scheduleRepo.ErrSettingsNotFound) {
		s.logger.Info("GetEffective: no settings for tenant=%d, using defaults", tenantID)
		return models.FromDomainSettings(domain.DefaultResourceSettings(tenantID), models.LevelDefault), nil
	}
	if err != nil {
		s.logger.Error("GetEffective: repository error for tenant=%d: %v", tenantID, err)
		return nil, fmt.Errorf("%w: GetEffective - repository error: %v", ErrInternal, err)
	}

	level := models.LevelTenant
	if !settings.IsTenantWide() {
		level = models.LevelResource
	}

	return models.FromDomainSettings(settings, level), nil
}

// Update заменяет настройки одного уровня
// Уже созданные брони не пересчитываются, новое расписание влияет только на будущую доступность
func (s *Service) Update(ctx context.Context, tenantID int64, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Update: saving schedule for tenant=%d, resource=%v", tenantID, req.ResourceID)

	// 1. Валидируем входные данные
	if err := validateUpdate(req); err != nil {
		s.logger.Warn("Update: validation failed for tenant=%d: %v", tenantID, err)
		return nil, err
	}

	// 2. Настройки сотрудника только для существующего сотрудника тенанта
	if req.ResourceID != nil {
		if _, err := s.catalog.GetResource(ctx, tenantID, *req.ResourceID); err != nil {
			if errors.Is(err, catalogRepo.ErrResourceNotFound) {
				s.logger.Warn("Update: resource id=%d not found for tenant=%d", *req.ResourceID, tenantID)
				return nil, ErrResourceNotFound
			}
			s.logger.Error("Update: failed to get resource id=%d: %v", *req.ResourceID, err)
			return nil, fmt.Errorf("%w: Update - catalog error: %v", ErrInternal, err)
		}
	}

	// 3. Сохраняем
	saved, err := s.settingsRepo.Upsert(ctx, req.ToDomainSettings(tenantID))
	if err != nil {
		s.logger.Error("Update: repository error for tenant=%d: %v", tenantID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	level := models.LevelTenant
	if req.ResourceID != nil {
		level = models.LevelResource
	}

	s.logger.Info("Update: saved settings id=%d (level: %s)", saved.ID, level)
	return models.FromDomainSettings(saved, level), nil
}

func validateUpdate(req *models.UpdateScheduleRequest) error {
	if !domain.ValidGranularity(req.GranularityMinutes) {
		return fmt.Errorf("%w: granularityMinutes must divide an hour and be within %d..%d",
			ErrInvalidInput, domain.MinGranularityMinutes, domain.MaxGranularityMinutes)
	}

	if req.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, req.Timezone)
	}

	if req.Schedule != nil {
		if err := req.Schedule.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	return nil
}
