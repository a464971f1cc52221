package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestListActive(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 1, 0)

	mock.ExpectQuery(`SELECT .* FROM entitlements e JOIN packages p ON p.id = e.package_id WHERE .* ORDER BY e.expires_at ASC NULLS LAST, e.id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "customer_id", "package_id", "name", "service_id", "total_quantity", "remaining_quantity", "expires_at"}).
			AddRow(1, 1, 100, 9, "10x Haircut", 3, 10, 4, expires).
			AddRow(2, 1, 100, 8, "Trial", 4, 1, 1, nil))

	entitlements, err := repo.ListActive(context.Background(), 1, 100, now)
	require.NoError(t, err)
	require.Len(t, entitlements, 2)

	assert.Equal(t, "10x Haircut", entitlements[0].PackageName)
	assert.Equal(t, 4, entitlements[0].RemainingQuantity)
	require.NotNil(t, entitlements[0].ExpiresAt)
	assert.Nil(t, entitlements[1].ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActive_QueryError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM entitlements`).WillReturnError(errors.New("timeout"))

	_, err := repo.ListActive(context.Background(), 1, 100, time.Now())
	assert.ErrorIs(t, err, ErrExecQuery)
}

func TestDecrementIfPositive(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE entitlements SET remaining_quantity = remaining_quantity - 1, updated_at = NOW\(\) WHERE id = \$1 AND remaining_quantity > \$2`).
		WithArgs(int64(1), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementIfPositive(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementIfPositive_Exhausted(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE entitlements`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DecrementIfPositive(context.Background(), 1)
	assert.ErrorIs(t, err, ErrEntitlementExhausted)
}
