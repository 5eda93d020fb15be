package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	device, err := json.Marshal(s.Device)
	if err != nil {
		return fmt.Errorf("failed to marshal device info: %w", err)
	}

	query :=
		`INSERT INTO sessions (token, user_id, created_at, expired_at, device_info)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query, s.Token, s.UserID, s.CreatedAt, s.ExpiredAt, string(device))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindActive joins the owning user so a session whose user is gone never
// validates.
func (r *PostgresRepository) FindActive(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	query :=
		`SELECT s.token, s.user_id, s.created_at, s.expired_at, s.logout_time, s.device_info
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1 AND s.logout_time IS NULL AND s.expired_at > $2`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) MarkLoggedOut(ctx context.Context, token string, at time.Time) error {
	query := `UPDATE sessions SET logout_time = $1 WHERE token = $2 AND logout_time IS NULL`

	if _, err := r.db.ExecContext(ctx, query, at, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	query :=
		`SELECT token, user_id, created_at, expired_at, logout_time, device_info
		 FROM sessions
		 WHERE user_id = $1 AND logout_time IS NULL AND expired_at > $2
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string, exceptToken string, at time.Time) (int64, error) {
	query :=
		`UPDATE sessions SET logout_time = $1
		 WHERE user_id = $2 AND token <> $3 AND logout_time IS NULL AND expired_at > $1`

	res, err := r.db.ExecContext(ctx, query, at, userID, exceptToken)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		s      models.Session
		logout sql.NullTime
		device []byte
	)
	if err := row.Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiredAt, &logout, &device); err != nil {
		return nil, err
	}
	if logout.Valid {
		t := logout.Time
		s.LogoutTime = &t
	}
	if len(device) > 0 {
		if err := json.Unmarshal(device, &s.Device); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device info: %w", err)
		}
	}
	return &s, nil
}
