package dbmetrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCollector struct {
	mu         sync.Mutex
	operations []string
	poolStats  int
}

func (c *recordingCollector) ObserveDBQuery(operation string, _ error, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operations = append(c.operations, operation)
}

func (c *recordingCollector) SetDBPoolStats(string, int, int, int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poolStats++
}

func TestDB_ObservesStatements(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	collector := &recordingCollector{}
	db := Wrap(sqlDB, collector)

	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err = db.ExecContext(context.Background(), "UPDATE bookings SET status = $1", "cancelled")
	require.NoError(t, err)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(context.Background(), "SELECT pg_advisory_xact_lock($1)", 1)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"exec", "tx_exec"}, collector.operations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_PrefersContextTx(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	rawTx, err := sqlDB.Begin()
	require.NoError(t, err)

	tx := &SqlTxWrapper{Tx: rawTx}
	ctx := WithTx(context.Background(), tx)

	assert.True(t, IsInTransaction(ctx))
	assert.Same(t, tx, GetExecutor(ctx, sqlDB))
	assert.False(t, IsInTransaction(context.Background()))
	assert.Equal(t, DBExecutor(sqlDB), GetExecutor(context.Background(), sqlDB))
}

func TestWrapWithDefault_StopsOnSignal(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	collector := &recordingCollector{}
	stop := make(chan struct{})
	WrapWithDefault(sqlDB, collector, "main", stop)

	assert.Eventually(t, func() bool {
		collector.mu.Lock()
		defer collector.mu.Unlock()
		return collector.poolStats > 0
	}, time.Second, 10*time.Millisecond)
	close(stop)
}
