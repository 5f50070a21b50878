package services

import (
	"testing"
	"time"

	"cafe_pos_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockedTableService(t *testing.T) (TableService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTableService(repositories.NewTableRepository(db), db), mock
}

func tableRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "number", "status", "created_at", "updated_at",
	}).AddRow(2, 1, "Window table", 4, status, time.Now(), time.Now())
}

func TestDeleteTableBlockedByActiveOrderSeenUnderLock(t *testing.T) {
	svc, mock := newMockedTableService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WillReturnRows(tableRow("occupied"))
	// The active-order check runs after the lock is held, so an order
	// committed by a concurrent open is visible here.
	mock.ExpectQuery(`SELECT id FROM orders WHERE table_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectRollback()

	err := svc.DeleteTable(1, 2)
	require.ErrorIs(t, err, ErrTableHasActiveOrder)

	// No DELETE was expected, so the table survives.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTableRemovesIdleTable(t *testing.T) {
	svc, mock := newMockedTableService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WillReturnRows(tableRow("empty"))
	mock.ExpectQuery(`SELECT id FROM orders WHERE table_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`DELETE FROM tables`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.DeleteTable(1, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
