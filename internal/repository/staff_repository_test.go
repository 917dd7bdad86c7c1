package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-academy/admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func staffRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "role", "department", "position", "bio", "image_path", "active", "created_at", "updated_at"})
}

func TestStaffRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := staffRows().
		AddRow("s1", "Jane Teacher", "jane@school.org", nil, "Teacher", "Sciences", nil, nil, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, phone, role, department, position, bio, image_path, active, created_at, updated_at FROM staff_members WHERE 1=1 ORDER BY created_at DESC LIMIT 100 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staff_members WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff_members WHERE 1=1 AND active = $1 AND department = $2")).
		WithArgs(true, "Sciences").
		WillReturnRows(staffRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(true, "Sciences").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StaffFilter{Active: &active, Department: "Sciences"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := staffRows().
		AddRow("s1", "Jane Teacher", "jane@school.org", nil, "Teacher", "Sciences", nil, nil, nil, true, time.Now(), time.Now()).
		AddRow("s2", "Sam Support", nil, nil, "Librarian", "Library", nil, nil, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff_members WHERE active = TRUE ORDER BY full_name ASC")).
		WillReturnRows(rows)

	staff, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	assert.Nil(t, staff[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectExec("INSERT INTO staff_members").
		WithArgs(sqlmock.AnyArg(), "Jane Teacher", "jane@school.org", nil, "Teacher", "Sciences", nil, nil, nil, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	email := "jane@school.org"
	member := &models.StaffMember{FullName: "Jane Teacher", Email: &email, Role: "Teacher", Department: "Sciences", Active: true}
	require.NoError(t, repo.Create(context.Background(), member))
	assert.NotEmpty(t, member.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staff_members WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staff_members WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
