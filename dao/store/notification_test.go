package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/metahub/dao/model"
)

func TestListPendingSkipsSentAndExhausted(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &notificationStore{db: gdb}

	mock.ExpectQuery(`SELECT \* FROM "notifications" WHERE sent_at IS NULL AND attempts < \$1`).
		WithArgs(5, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "recipient", "attempts"}).
			AddRow(1, "invitation", "mira@example.org", 0).
			AddRow(2, "request_access", "petra@example.org", 3))

	pending, err := s.ListPending(context.Background(), 5, 50)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.NotificationInvitation, pending[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedBumpsAttemptCounter(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &notificationStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "attempts"=attempts \+ 1,"last_error"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.MarkFailed(context.Background(), 2, "dial tcp: connection refused")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &notificationStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "sent_at"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.MarkSent(context.Background(), 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
