package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ts      = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	columns = []string{"id", "email", "password_digest", "full_name", "gender", "age", "role", "created_at", "updated_at"}
)

const (
	qInsert      = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_digest,\s*full_name,\s*gender,\s*age,\s*role,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,.*\$9\)\s*RETURNING\s+id$`
	qByEmail     = `(?s)^SELECT\s+id,\s*email,\s*password_digest,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	qByID        = `(?s)^SELECT\s+id,\s*email,\s*password_digest,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	qUpdPassword = `(?s)^UPDATE\s+users\s+SET\s+password_digest\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3$`
	qDelete      = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	orig := newID
	newID = func() string { return "u-1" }
	t.Cleanup(func() { newID = orig })

	mock.ExpectQuery(qInsert).
		WithArgs("u-1", "a@x.com", "digest", "Alice", nil, 30, "EDITOR", ts, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	age := 30
	got, err := repo.Create(context.Background(), &models.User{
		Email: "a@x.com", PasswordDigest: "digest", FullName: "Alice", Age: &age, CreatedAt: ts, UpdatedAt: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, models.RoleEditor, got.Role)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qInsert).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@x.com"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qInsert).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@x.com"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByEmail).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-1", "a@x.com", "digest", "Alice", "f", int64(30), "EDITOR", ts, ts))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "digest", got.PasswordDigest)
	require.NotNil(t, got.Gender)
	assert.Equal(t, "f", *got.Gender)
	require.NotNil(t, got.Age)
	assert.Equal(t, 30, *got.Age)
	assert.Equal(t, models.RoleEditor, got.Role)
}

func TestGetByEmail_NullOptionalFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByEmail).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-1", "a@x.com", "digest", "Alice", nil, nil, "EDITOR", ts, ts))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, got.Gender)
	assert.Nil(t, got.Age)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByEmail).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByID).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "db error")
}

func TestUpdateProfile_OnlyGivenFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+full_name\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s+RETURNING\s+id,`
	mock.ExpectQuery(q).
		WithArgs("Alicia", ts, "u-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-1", "a@x.com", "digest", "Alicia", nil, nil, "EDITOR", ts, ts))

	name := "Alicia"
	got, err := repo.UpdateProfile(context.Background(), "u-1", models.ProfileUpdate{FullName: &name}, ts)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FullName)
}

func TestUpdateProfile_AllFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+full_name\s*=\s*\$1,\s*gender\s*=\s*\$2,\s*age\s*=\s*\$3,\s*updated_at\s*=\s*\$4\s+WHERE\s+id\s*=\s*\$5\s+RETURNING`
	mock.ExpectQuery(q).
		WithArgs("Alicia", "f", 31, ts, "u-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-1", "a@x.com", "digest", "Alicia", "f", int64(31), "EDITOR", ts, ts))

	name, gender, age := "Alicia", "f", 31
	_, err := repo.UpdateProfile(context.Background(), "u-1",
		models.ProfileUpdate{FullName: &name, Gender: &gender, Age: &age}, ts)
	require.NoError(t, err)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	name := "x"
	_, err := repo.UpdateProfile(context.Background(), "ghost", models.ProfileUpdate{FullName: &name}, ts)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdatePassword(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(qUpdPassword).WithArgs("new", ts, "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new", ts))
	})

	t.Run("no such user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(qUpdPassword).WithArgs("new", ts, "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, repo.UpdatePassword(context.Background(), "ghost", "new", ts), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(qUpdPassword).WillReturnError(errors.New("conn reset"))
		err := repo.UpdatePassword(context.Background(), "u-1", "new", ts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error: conn reset")
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(qDelete).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "u-1"))

	mock.ExpectExec(qDelete).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "u-1"), common.ErrorNotFound)
}
