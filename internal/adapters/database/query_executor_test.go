package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rewardops/pangea-analytics/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAdapter(t *testing.T) (*QueryAdapter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	adapter := NewQueryAdapter(postgres.NewClientWithDB(db)).(*QueryAdapter)
	return adapter, mock
}

func TestExecuteQueryReturnsRows(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT "id", "created_at" FROM "orders" LIMIT $1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(1), createdAt).
			AddRow(int64(2), createdAt))

	results, err := adapter.ExecuteQuery(
		context.Background(),
		`SELECT "id", "created_at" FROM "orders" LIMIT $1`,
		[]interface{}{int64(2)},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "created_at"}, results.Columns)
	require.Equal(t, 2, results.Len())
	assert.Equal(t, int64(1), results.Rows[0]["id"])
	// Timestamps come back as RFC 3339 strings so they serialize cleanly.
	assert.Equal(t, "2025-06-01T12:00:00Z", results.Rows[0]["created_at"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryNormalizesBytes(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT "external_id" FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"external_id"}).
			AddRow([]byte("ORD-001")))

	results, err := adapter.ExecuteQuery(context.Background(), `SELECT "external_id" FROM "orders"`, nil)
	require.NoError(t, err)

	assert.Equal(t, "ORD-001", results.Rows[0]["external_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryEmptyResult(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT "id" FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	results, err := adapter.ExecuteQuery(context.Background(), `SELECT "id" FROM "orders"`, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, results.Len())
	assert.NotNil(t, results.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryWrapsDriverErrors(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT "id" FROM "orders"`).
		WillReturnError(assert.AnError)

	_, err := adapter.ExecuteQuery(context.Background(), `SELECT "id" FROM "orders"`, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}
