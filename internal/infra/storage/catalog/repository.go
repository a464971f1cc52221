package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// serviceIDsColumn агрегирует услуги сотрудника в массив
const serviceIDsColumn = "COALESCE(array_agg(rs.service_id) FILTER (WHERE rs.service_id IS NOT NULL), '{}')"

// Repository каталог услуг и сотрудников тенанта
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListServices возвращает активные услуги тенанта
func (r *Repository) ListServices(ctx context.Context, tenantID int64) ([]domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := serviceSelect().
		Where(squirrel.Eq{"tenant_id": tenantID, "is_active": true}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - build query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.Price, &s.Currency, &s.IsActive); err != nil {
			return nil, fmt.Errorf("%w: ListServices - scan row: %v", ErrScanRow, err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServices - rows error: %v", ErrScanRow, err)
	}

	return services, nil
}

// GetService возвращает активную услугу тенанта
func (r *Repository) GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := serviceSelect().
		Where(squirrel.Eq{"id": serviceID, "tenant_id": tenantID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build query: %v", ErrBuildQuery, err)
	}

	var s domain.Service
	err = executor.QueryRowContext(ctx, query, args...).
		Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.Price, &s.Currency, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan: %v", ErrScanRow, err)
	}

	return &s, nil
}

// GetResource возвращает активного сотрудника вместе со списком услуг, которые он выполняет
func (r *Repository) GetResource(ctx context.Context, tenantID, resourceID int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := resourceSelect().
		Where(squirrel.Eq{"r.id": resourceID, "r.tenant_id": tenantID, "r.is_active": true}).
		GroupBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - build query: %v", ErrBuildQuery, err)
	}

	resource, err := scanResource(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - scan: %v", ErrScanRow, err)
	}

	return resource, nil
}

// ListResourcesForService возвращает активных сотрудников, выполняющих услугу
func (r *Repository) ListResourcesForService(ctx context.Context, tenantID, serviceID int64) ([]domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := resourceSelect().
		Where(squirrel.Eq{"r.tenant_id": tenantID, "r.is_active": true}).
		GroupBy("r.id").
		Having(squirrel.Expr("? = ANY(array_agg(rs.service_id))", serviceID)).
		OrderBy("r.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListResourcesForService - build query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListResourcesForService - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]domain.Resource, 0)
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListResourcesForService - scan row: %v", ErrScanRow, err)
		}
		resources = append(resources, *resource)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListResourcesForService - rows error: %v", ErrScanRow, err)
	}

	return resources, nil
}

func serviceSelect() squirrel.SelectBuilder {
	return psqlbuilder.Select("id", "tenant_id", "name", "duration_minutes", "price", "currency", "is_active").
		From("services")
}

func resourceSelect() squirrel.SelectBuilder {
	return psqlbuilder.Select("r.id", "r.tenant_id", "r.name", "r.is_active", serviceIDsColumn).
		From("resources r").
		LeftJoin("resource_services rs ON rs.resource_id = r.id")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var (
		resource   domain.Resource
		serviceIDs pq.Int64Array
	)
	if err := row.Scan(&resource.ID, &resource.TenantID, &resource.Name, &resource.IsActive, &serviceIDs); err != nil {
		return nil, err
	}
	resource.ServiceIDs = []int64(serviceIDs)
	return &resource, nil
}
