package booking

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func bookingRow(id int64, start string, duration int, status string) []driver.Value {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, int64(1), int64(7), int64(3), nil,
		time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), start, duration, status,
		"deferred", "deferred_payment", nil, nil, "50000", "KRW",
		"Haircut", "Kim", "01077776666", "01012345678", "sms", nil, "sess-1",
		nil, nil, now, now,
	}
}

func TestCreate(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO bookings .* RETURNING id, created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	b := &domain.Booking{
		TenantID:        1,
		ResourceID:      7,
		ServiceID:       3,
		BookingDate:     time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		DurationMinutes: 60,
		Status:          domain.StatusConfirmed,
		Settlement:      domain.SettlementRedemption,
		Outcome:         domain.OutcomeRedeemedEntitlement,
		Amount:          decimal.Zero,
		Currency:        "KRW",
	}

	created, err := repo.Create(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationMeansSlotTaken(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`INSERT INTO bookings`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &domain.Booking{StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestCreate_OtherError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`INSERT INTO bookings`).WillReturnError(errors.New("boom"))

	_, err := repo.Create(context.Background(), &domain.Booking{StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrExecQuery)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).AddRow(bookingRow(5, "10:00", 60, "pending_payment")...))

	b, err := repo.GetByID(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(5), b.ID)
	assert.Nil(t, b.CustomerID)
	assert.Equal(t, types.TimeString("10:00"), b.StartTime)
	assert.Equal(t, domain.StatusPendingPayment, b.Status)
	assert.Equal(t, "01077776666", b.CustomerPhone)
	assert.Equal(t, "01012345678", b.IdentityPhone)
	assert.True(t, decimal.NewFromInt(50000).Equal(b.Amount))
	assert.Nil(t, b.CancelledAt)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM bookings`).WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := repo.GetByID(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListNonCancelled(t *testing.T) {
	repo, mock := newRepo(t)
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM bookings WHERE booking_date = \$1 AND resource_id = \$2 AND tenant_id = \$3 AND status NOT IN \(\$4\) ORDER BY start_time ASC$`).
		WithArgs("2025-01-06", int64(7), int64(1), "cancelled").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(bookingRow(1, "10:00", 90, "confirmed")...).
			AddRow(bookingRow(2, "14:00", 30, "pending")...))

	bookings, err := repo.ListNonCancelled(context.Background(), 1, 7, date)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, 90, bookings[0].DurationMinutes)
	assert.Equal(t, types.TimeString("14:00"), bookings[1].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNonCancelled_LocksRowsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY start_time ASC FOR UPDATE`).WillReturnRows(sqlmock.NewRows(bookingColumns))

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), &dbmetrics.SqlTxWrapper{Tx: tx})

	bookings, err := repo.ListNonCancelled(ctx, 1, 7, time.Now())
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockResourceDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtextextended\(\$1, 0\)\)`).
		WithArgs("booking:7:2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), &dbmetrics.SqlTxWrapper{Tx: tx})

	require.NoError(t, repo.LockResourceDay(ctx, 7, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockResourceDay_RequiresTransaction(t *testing.T) {
	repo, _ := newRepo(t)

	err := repo.LockResourceDay(context.Background(), 7, time.Now())
	assert.ErrorIs(t, err, ErrTransaction)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE bookings SET status = \$1, updated_at = NOW\(\) WHERE id = \$2 AND tenant_id = \$3`).
		WithArgs("no_show", int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 1, 5, domain.StatusNoShow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE bookings SET status = \$1, cancellation_reason = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), 1, 5, "customer request")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCountNoShows(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE identity_phone = \$1 AND status = \$2 AND tenant_id = \$3`).
		WithArgs("01012345678", "no_show", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountNoShows(context.Background(), 1, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
