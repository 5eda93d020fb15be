package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/logging"
	"github.com/redis/go-redis/v9"
)

// loggedOutRetention is how long a logged out session is kept for audit
// before Redis drops it.
const loggedOutRetention = 24 * time.Hour

// RedisRepository keeps each session as a JSON value under <prefix>:<token>
// with a TTL matching its expiry, plus a set of tokens per user.
//
// Unlike the Postgres table there is no link to the users table: sessions
// of a deleted user stay in Redis until their TTL runs out.
type RedisRepository struct {
	client redis.Cmdable
	prefix string
	log    logging.Logger
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(client redis.Cmdable, prefix string, log logging.Logger) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix, log: log}
}

func (r *RedisRepository) sessionKey(token string) string {
	return fmt.Sprintf("%s:%s", r.prefix, token)
}

func (r *RedisRepository) userSessionsKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, userID)
}

func (r *RedisRepository) Create(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := s.ExpiredAt.Sub(s.CreatedAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	ok, err := r.client.SetNX(ctx, r.sessionKey(s.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorAlreadyExists
	}

	if err := r.client.SAdd(ctx, r.userSessionsKey(s.UserID), s.Token).Err(); err != nil {
		// a session missing from the user index could never be listed or revoked
		if delErr := r.client.Del(ctx, r.sessionKey(s.Token)).Err(); delErr != nil {
			r.log.Error(ctx, "failed to remove unindexed session", "token", common.TokenPrefix(s.Token), "error", delErr)
		}
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) get(ctx context.Context, token string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisRepository) FindActive(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	s, err := r.get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.IsValid(now) {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (r *RedisRepository) MarkLoggedOut(ctx context.Context, token string, at time.Time) error {
	s, err := r.get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if s.IsLoggedOut() {
		return nil
	}

	s.LogoutTime = &at
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(token), data, loggedOutRetention).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	tokens, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var result []*models.Session
	for _, token := range tokens {
		s, err := r.get(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// expired by TTL, drop it from the index
				if err := r.client.SRem(ctx, r.userSessionsKey(userID), token).Err(); err != nil {
					r.log.Warn(ctx, "failed to prune session index", "user_id", userID, "token", common.TokenPrefix(token), "error", err)
				}
				continue
			}
			return nil, err
		}
		if s.IsValid(now) {
			result = append(result, s)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *RedisRepository) RevokeAllByUser(ctx context.Context, userID string, exceptToken string, at time.Time) (int64, error) {
	active, err := r.ListActiveByUser(ctx, userID, at)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, s := range active {
		if s.Token == exceptToken {
			continue
		}
		if err := r.MarkLoggedOut(ctx, s.Token, at); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
