package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/dbx"
	"github.com/google/uuid"
)

const userColumns = `id, email, password_digest, full_name, gender, age, role, created_at, updated_at`

// newID is a seam for tests.
var newID = uuid.NewString

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.Role == "" {
		user.Role = models.RoleEditor
	}

	query :=
		`INSERT INTO users (id, email, password_digest, full_name, gender, age, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordDigest, user.FullName,
		nullString(user.Gender), nullInt(user.Age), string(user.Role),
		user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UpdateProfile applies the non-nil fields of upd and bumps updated_at.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.FullName != nil {
		set("full_name", *upd.FullName)
	}
	if upd.Gender != nil {
		set("gender", *upd.Gender)
	}
	if upd.Age != nil {
		set("age", *upd.Age)
	}
	set("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, digest string, now time.Time) error {
	query := `UPDATE users SET password_digest = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, digest, now, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the user; sessions and posts go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u      models.User
		gender sql.NullString
		age    sql.NullInt64
		role   string
	)

	err := row.Scan(&u.ID, &u.Email, &u.PasswordDigest, &u.FullName, &gender, &age, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if gender.Valid {
		u.Gender = &gender.String
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	u.Role = models.Role(role)

	return &u, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
