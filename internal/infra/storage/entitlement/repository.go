package entitlement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository пакеты услуг клиентов (абонементы)
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListActive возвращает пакеты клиента с ненулевым остатком, не истёкшие на момент now
func (r *Repository) ListActive(ctx context.Context, tenantID, customerID int64, now time.Time) ([]domain.Entitlement, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"e.id",
		"e.tenant_id",
		"e.customer_id",
		"e.package_id",
		"p.name",
		"e.service_id",
		"e.total_quantity",
		"e.remaining_quantity",
		"e.expires_at",
	).
		From("entitlements e").
		Join("packages p ON p.id = e.package_id").
		Where(squirrel.Eq{"e.tenant_id": tenantID, "e.customer_id": customerID}).
		Where(squirrel.Gt{"e.remaining_quantity": 0}).
		Where(squirrel.Or{
			squirrel.Eq{"e.expires_at": nil},
			squirrel.Gt{"e.expires_at": now},
		}).
		OrderBy("e.expires_at ASC NULLS LAST", "e.id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entitlements := make([]domain.Entitlement, 0)
	for rows.Next() {
		var (
			e         domain.Entitlement
			expiresAt sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.CustomerID,
			&e.PackageID,
			&e.PackageName,
			&e.ServiceID,
			&e.TotalQuantity,
			&e.RemainingQuantity,
			&expiresAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListActive - scan row: %v", ErrScanRow, err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			e.ExpiresAt = &t
		}
		entitlements = append(entitlements, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return entitlements, nil
}

// DecrementIfPositive списывает одно посещение с пакета атомарно (compare-and-swap)
// Ноль затронутых строк означает, что остаток уже исчерпан: ErrEntitlementExhausted
func (r *Repository) DecrementIfPositive(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("entitlements").
		Set("remaining_quantity", squirrel.Expr("remaining_quantity - 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Gt{"remaining_quantity": 0}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DecrementIfPositive - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DecrementIfPositive - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DecrementIfPositive - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrEntitlementExhausted, id)
	}

	return nil
}
