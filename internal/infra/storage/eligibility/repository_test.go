package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsListed(t *testing.T) {
	tests := []struct {
		name   string
		listed bool
	}{
		{name: "listed", listed: true},
		{name: "not listed", listed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM blocked_customers WHERE phone = \$1 AND tenant_id = \$2\)`).
				WithArgs("01012345678", int64(1)).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.listed))

			listed, err := NewRepository(db).IsListed(context.Background(), 1, "01012345678")
			require.NoError(t, err)
			assert.Equal(t, tt.listed, listed)
		})
	}
}

func TestIsListed_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`blocked_customers`).WillReturnError(errors.New("down"))

	_, err = NewRepository(db).IsListed(context.Background(), 1, "01012345678")
	assert.ErrorIs(t, err, ErrScanRow)
}
