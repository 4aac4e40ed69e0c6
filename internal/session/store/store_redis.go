package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sidesa/internal/session/models"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "session:"
	maxUpdateRetries = 3
)

// RedisStore shares sessions across instances. Keys expire after the
// retention window so abandoned sessions do not accumulate.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a redis session store. retention bounds how long an
// idle session key is kept; zero keeps keys forever.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func sessionKey(id domain.SessionID) string {
	return sessionKeyPrefix + id.String()
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, sessionKey(session.ID), payload, s.retention).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.SessionID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Update applies fn under WATCH so concurrent touches never lose an update.
// A conflicting write retries; persistent conflicts return redis.TxFailedErr.
func (s *RedisStore) Update(ctx context.Context, id domain.SessionID, fn func(*models.Session) error) error {
	key := sessionKey(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		var session models.Session
		if err := json.Unmarshal(raw, &session); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&session); err != nil {
			return err
		}
		payload, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.retention)
			return nil
		})
		return err
	}

	var err error
	for range maxUpdateRetries {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id domain.SessionID) error {
	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
