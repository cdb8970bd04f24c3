package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestMembershipGet(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &membershipStore{db: gdb}

	mock.ExpectQuery(`SELECT \* FROM "user_projects" WHERE user_id = \$1 AND project_id = \$2`).
		WithArgs(3, 7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "project_id", "role"}).
			AddRow(3, 7, uint8(model.ProjectRoleManager)))

	up, err := s.Get(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRoleManager, up.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipGetForUpdateLocksRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &membershipStore{db: gdb}

	mock.ExpectQuery(`SELECT \* FROM "user_projects" WHERE user_id = \$1 AND project_id = \$2 .* FOR UPDATE`).
		WithArgs(3, 7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "project_id", "role"}).
			AddRow(3, 7, uint8(model.ProjectRolePending)))

	up, err := s.GetForUpdate(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRolePending, up.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipUpdateRoleMissingRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &membershipStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateRole(context.Background(), 3, 7, model.ProjectRoleMember)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipDeleteMissingRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &membershipStore{db: gdb}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "user_projects"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.Delete(context.Background(), 3, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipListManagersFiltersByRole(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := &membershipStore{db: gdb}

	mock.ExpectQuery(`SELECT .* FROM "users" JOIN user_projects ON user_projects\.user_id = users\.id WHERE user_projects\.project_id = \$1 AND user_projects\.role >= \$2`).
		WithArgs(7, uint8(model.ProjectRoleManager)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "petra"))

	managers, err := s.ListManagers(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "petra", managers[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
