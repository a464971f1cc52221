package eligibility

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository чёрный список клиентов тенанта
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// IsListed проверяет, внесён ли телефон в чёрный список тенанта
func (r *Repository) IsListed(ctx context.Context, tenantID int64, phone string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	sub := psqlbuilder.Select("1").
		From("blocked_customers").
		Where(squirrel.Eq{"tenant_id": tenantID, "phone": phone})

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("EXISTS(?)", sub)).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: IsListed - build query: %v", ErrBuildQuery, err)
	}

	var listed bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&listed); err != nil {
		return false, fmt.Errorf("%w: IsListed - scan: %v", ErrScanRow, err)
	}

	return listed, nil
}
