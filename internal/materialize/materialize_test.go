package materialize

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/proclens/proclens/internal/adapter"
	"github.com/proclens/proclens/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	defs := FromConfig(map[string]string{
		"vw_revenue_summary":  "SELECT 1",
		"vw_bookings_summary": "SELECT 2",
	})

	require.Len(t, defs, 2)
	assert.Equal(t, "vw_bookings_summary", defs[0].Name)
	assert.Equal(t, "vw_revenue_summary", defs[1].Name)
}

func TestFromConfigEmpty(t *testing.T) {
	assert.Empty(t, FromConfig(nil))
}

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := adapter.NewMySQL(nil)
	a.DB = db

	mock.ExpectExec("CREATE OR REPLACE VIEW vw_bookings_summary AS SELECT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE OR REPLACE VIEW vw_revenue_summary AS SELECT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	m := New(a, testutil.NewTestLogger(t))
	err = m.Apply(context.Background(), []Definition{
		{Name: "vw_bookings_summary", SQL: "SELECT * FROM fact_bookings"},
		{Name: "vw_revenue_summary", SQL: "SELECT * FROM fact_revenue"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := adapter.NewMySQL(nil)
	a.DB = db

	mock.ExpectExec("CREATE OR REPLACE VIEW vw_bad").
		WillReturnError(assert.AnError)

	m := New(a, nil)
	err = m.Apply(context.Background(), []Definition{
		{Name: "vw_bad", SQL: "SELECT * FROM missing"},
		{Name: "vw_never", SQL: "SELECT 1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vw_bad")
	assert.NoError(t, mock.ExpectationsWereMet())
}
