package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/catadmin/internal/category"
)

func mockRepository(t *testing.T) (*CategoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCategoryRepository(db, nil), mock
}

func TestMoveCategory_BeginFails(t *testing.T) {
	repo, mock := mockRepository(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.MoveCategory(context.Background(), 2, 1, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beginning transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveCategory_ClaimFails(t *testing.T) {
	repo, mock := mockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tree_revision").WithArgs(int64(5)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := repo.MoveCategory(context.Background(), 2, 1, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claiming revision")
	assert.NotErrorIs(t, err, category.ErrStaleSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveCategory_ClaimLost(t *testing.T) {
	repo, mock := mockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tree_revision").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.MoveCategory(context.Background(), 2, 1, 5)
	assert.ErrorIs(t, err, category.ErrStaleSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_CommitFails(t *testing.T) {
	repo, mock := mockRepository(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM categories WHERE id = ?").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "parent_id", "depth", "position", "created_at", "updated_at"}).
			AddRow(3, "Smartphones", "categories/smartphones", nil, 1, 1, now, now))
	mock.ExpectQuery("SELECT COUNT").WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("DELETE FROM categories").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tree_revision").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := repo.DeleteCategory(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}
