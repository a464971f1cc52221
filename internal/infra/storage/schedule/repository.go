package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий настроек расписания ресурсов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByTenantAndResource получает настройки ровно одного уровня:
// resourceID == nil - настройки тенанта, иначе - настройки конкретного ресурса
func (r *Repository) GetByTenantAndResource(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"tenant_id",
		"resource_id",
		"granularity_minutes",
		"timezone",
		"schedule",
		"created_at",
		"updated_at",
	).
		From("resource_settings").
		Where(squirrel.Eq{"tenant_id": tenantID})

	// Фильтрация по resource_id (NULL или конкретное значение)
	if resourceID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_id": *resourceID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByTenantAndResource - build select query: %v", ErrBuildQuery, err)
	}

	var (
		settings     domain.ResourceSettings
		scheduleJSON []byte
		createdAt    sql.NullTime
		updatedAt    sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&settings.ID,
		&settings.TenantID,
		&settings.ResourceID,
		&settings.GranularityMinutes,
		&settings.Timezone,
		&scheduleJSON,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByTenantAndResource - scan settings: %v", ErrScanRow, err)
	}

	// Некорректный JSON расписания трактуем как отсутствие расписания (будет применено расписание по умолчанию)
	if len(scheduleJSON) > 0 {
		var weekly domain.WeeklySchedule
		if err := json.Unmarshal(scheduleJSON, &weekly); err == nil {
			settings.Schedule = &weekly
		}
	}

	settings.CreatedAt = createdAt.Time
	settings.UpdatedAt = updatedAt.Time

	return &settings, nil
}

// GetSettingsWithHierarchy получает настройки с учетом иерархии приоритетов:
// 1. Настройки конкретного ресурса (tenantID, resourceID)
// 2. Настройки тенанта (tenantID, NULL)
//
// Если настройки не найдены ни на одном уровне, возвращает ErrSettingsNotFound
func (r *Repository) GetSettingsWithHierarchy(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error) {
	// 1. Настройки ресурса
	if resourceID != nil {
		settings, err := r.GetByTenantAndResource(ctx, tenantID, resourceID)
		if err == nil {
			return settings, nil
		}
		if !errors.Is(err, ErrSettingsNotFound) {
			return nil, fmt.Errorf("%w: GetSettingsWithHierarchy - level 1 (resource): %v", ErrExecQuery, err)
		}
	}

	// 2. Настройки тенанта
	settings, err := r.GetByTenantAndResource(ctx, tenantID, nil)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, fmt.Errorf("%w: GetSettingsWithHierarchy - level 2 (tenant): %v", ErrExecQuery, err)
	}

	return nil, ErrSettingsNotFound
}

// Upsert создаёт или заменяет настройки одного уровня (тенант или ресурс)
// Schedule == nil сохраняется как NULL, то есть расписание по умолчанию
func (r *Repository) Upsert(ctx context.Context, settings *domain.ResourceSettings) (*domain.ResourceSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var scheduleJSON interface{}
	if settings.Schedule != nil {
		raw, err := json.Marshal(settings.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: Upsert - marshal schedule: %v", ErrBuildQuery, err)
		}
		// lib/pq передаёт []byte как bytea, jsonb принимает только текст
		scheduleJSON = string(raw)
	}

	conflict := "ON CONFLICT (tenant_id) WHERE resource_id IS NULL"
	if settings.ResourceID != nil {
		conflict = "ON CONFLICT (tenant_id, resource_id) WHERE resource_id IS NOT NULL"
	}

	query, args, err := psqlbuilder.Insert("resource_settings").
		Columns("tenant_id", "resource_id", "granularity_minutes", "timezone", "schedule").
		Values(settings.TenantID, settings.ResourceID, settings.GranularityMinutes, settings.Timezone, scheduleJSON).
		Suffix(conflict + " DO UPDATE SET " +
			"granularity_minutes = EXCLUDED.granularity_minutes, " +
			"timezone = EXCLUDED.timezone, " +
			"schedule = EXCLUDED.schedule, " +
			"updated_at = NOW() " +
			"RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&settings.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	settings.CreatedAt = createdAt.Time
	settings.UpdatedAt = updatedAt.Time

	return settings, nil
}
