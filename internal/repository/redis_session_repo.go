package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/bie/internal/model"
)

// RedisSessionRepo はRedisを使用したセッションリポジトリ。
// Key format:
//
//	session:<id>            セッション本体（JSON、有効期限までのTTL付き）
//	user_sessions:<user_id> ユーザーのセッションIDの集合
type RedisSessionRepo struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(client redis.Cmdable) *RedisSessionRepo {
	return &RedisSessionRepo{client: client, now: time.Now}
}

// redisSession はRedisに保存するセッションの形。
type redisSession struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

func encodeSession(s *model.Session) ([]byte, error) {
	return json.Marshal(redisSession{
		ID:             s.ID,
		UserID:         s.UserID,
		AccessToken:    s.AccessToken,
		RefreshToken:   s.RefreshToken,
		TokenExpiresAt: s.TokenExpiresAt,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
	})
}

func decodeSession(data []byte) (*model.Session, error) {
	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &model.Session{
		ID:             rs.ID,
		UserID:         rs.UserID,
		AccessToken:    rs.AccessToken,
		RefreshToken:   rs.RefreshToken,
		TokenExpiresAt: rs.TokenExpiresAt,
		ExpiresAt:      rs.ExpiresAt,
		CreatedAt:      rs.CreatedAt,
	}, nil
}

// Create はセッションを作成する。TTLはセッションの有効期限までとする。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("failed to create session: already expired")
	}
	data, err := encodeSession(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), data, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
func (r *RedisSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session, err := decodeSession(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if !session.ExpiresAt.After(r.now()) {
		return nil, nil
	}
	return session, nil
}

// Update はセッションのトークンを更新する。有効期限（TTL）は維持する。
func (r *RedisSessionRepo) Update(ctx context.Context, session *model.Session) error {
	current, err := r.FindByID(ctx, session.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrSessionNotFound
	}

	current.AccessToken = session.AccessToken
	current.RefreshToken = session.RefreshToken
	current.TokenExpiresAt = session.TokenExpiresAt

	data, err := encodeSession(current)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := r.client.SetXX(ctx, sessionKey(session.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *RedisSessionRepo) DeleteByID(ctx context.Context, id string) error {
	session, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		if session != nil {
			pipe.SRem(ctx, userSessionsKey(session.UserID), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *RedisSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*RedisSessionRepo)(nil)
