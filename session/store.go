package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps backend failures on the write path.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrIncompleteSession is returned by Save when the session is missing its
// token or identity. A half session must never reach storage.
var ErrIncompleteSession = errors.New("incomplete session")

// Store persists sessions in Redis, two fields per scope key. It is the
// durable half of the session model: its only job is to survive a console
// restart or a new browser tab, and it is always treated as a cache of the
// manager's in-memory session.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the key namespace; ttl bounds how long a persisted session
// outlives its last save.
func NewStore(redis redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) tokenKey(scope string) string {
	return s.prefix + ":" + scope + ":token"
}

func (s *Store) identityKey(scope string) string {
	return s.prefix + ":" + scope + ":identity"
}

// Load returns the persisted session for scope, or nil when there is none.
// Half-written pairs and unparsable identities are cleared before returning
// nil, so a corrupt read never repeats. Backend failures also degrade to
// nil; callers re-authenticate instead of seeing an error.
func (s *Store) Load(ctx context.Context, scope string) *Session {
	vals, err := s.redis.MGet(ctx, s.tokenKey(scope), s.identityKey(scope)).Result()
	if err != nil || len(vals) != 2 {
		return nil
	}

	token, haveToken := vals[0].(string)
	raw, haveIdentity := vals[1].(string)
	if token == "" {
		haveToken = false
	}
	if raw == "" {
		haveIdentity = false
	}

	if !haveToken || !haveIdentity {
		if haveToken != haveIdentity {
			s.Clear(ctx, scope)
		}
		return nil
	}

	identity, err := DecodeIdentity([]byte(raw))
	if err != nil {
		s.Clear(ctx, scope)
		return nil
	}

	return &Session{Token: token, Identity: identity}
}

// Save persists both fields in one transaction so Load never observes a
// partial write.
func (s *Store) Save(ctx context.Context, scope string, sess *Session) error {
	if !sess.Valid() {
		return ErrIncompleteSession
	}

	data, err := EncodeIdentity(sess.Identity)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(scope), sess.Token, s.ttl)
		pipe.Set(ctx, s.identityKey(scope), data, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Clear removes both fields. Idempotent and best-effort: a failed delete
// leaves at worst a session that expires with its TTL.
func (s *Store) Clear(ctx context.Context, scope string) {
	_ = s.redis.Del(ctx, s.tokenKey(scope), s.identityKey(scope)).Err()
}

// Ping returns a point-in-time availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
