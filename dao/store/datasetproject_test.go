package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both cascade statements must stay set-based: one UPDATE or DELETE
// covering every dataset the user owns in the project, with the
// ownership subquery inlined.

func TestApproveAllForUserIsOneStatement(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &datasetProjectStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "dataset_projects" SET "approved"=\$1.* WHERE project_id = \$\d+ AND dataset_id IN \(SELECT id FROM "datasets" WHERE owner_id = \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.ApproveAllForUser(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeAllForUserIsOneStatement(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &datasetProjectStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "dataset_projects" WHERE project_id = \$\d+ AND dataset_id IN \(SELECT id FROM "datasets" WHERE owner_id = \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.PurgeAllForUser(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByProject(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &datasetProjectStore{db: gdb}

	mock.ExpectQuery(`SELECT \* FROM "dataset_projects" WHERE project_id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"dataset_id", "project_id", "approved"}).
			AddRow("a2f9", 7, true).
			AddRow("b7c1", 7, false))

	dps, err := s.ListByProject(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, dps, 2)
	assert.True(t, dps[0].Approved)
	assert.False(t, dps[1].Approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
