package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "pairing:"
	// sessionRetention keeps a session readable after expiry so its status
	// can be reported as expired instead of not found.
	sessionRetention = time.Hour
	maxTxRetries     = 3
)

// RedisSessions stores pairing sessions as JSON values with a TTL.
type RedisSessions struct {
	rdb *redis.Client
}

// NewRedisSessions constructs a Redis backed session store.
func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create stores a new session. It fails if the id is already taken.
func (s *RedisSessions) Create(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt) + sessionRetention
	ok, err := s.rdb.SetNX(ctx, sessionKey(sess.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store pairing session: %w", err)
	}
	if !ok {
		return fmt.Errorf("pairing session %s already exists", sess.ID)
	}
	return nil
}

// Get loads a session.
func (s *RedisSessions) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("load pairing session: %w", err)
	}
	return decodeSession(data)
}

// Update applies fn to the stored session inside an optimistic transaction
// and keeps the key's TTL.
func (s *RedisSessions) Update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	key := sessionKey(id)
	var updated Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return err
		}
		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(&sess); err != nil {
			return err
		}
		out, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = sess
		}
		return err
	}

	for range maxTxRetries {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Session{}, err
		}
		return updated, nil
	}
	return Session{}, fmt.Errorf("update pairing session %s: %w", id, redis.TxFailedErr)
}

func decodeSession(data []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode pairing session: %w", err)
	}
	return sess, nil
}
