package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/graceseason/storefront/internal/pkg/cache"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const (
	sessionTTL    = 7 * 24 * time.Hour
	sessionJitter = time.Hour
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps shopper sessions as JSON documents in Redis. Every
// save refreshes the TTL; the jitter spreads expiry of sessions created
// together.
type SessionStore struct {
	cache cache.Cache
	now   func() time.Time
}

func NewSessionStore(c cache.Cache) *SessionStore {
	return &SessionStore{cache: c, now: time.Now}
}

func (s *SessionStore) Load(ctx context.Context, id string) (*entity.Session, error) {
	raw, err := s.cache.Get(ctx, s.key(id))
	if errors.Is(err, cache.ErrMiss) {
		return entity.NewSession(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	session.ID = id
	if session.Cart == nil {
		session.Cart = []entity.CartLineItem{}
	}
	if session.Wishlist == nil {
		session.Wishlist = []entity.WishlistItem{}
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *entity.Session) error {
	session.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	if err := s.cache.Set(ctx, s.key(session.ID), raw, ttl()); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, s.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return s.cache.GenerateKey("session", id)
}

func ttl() time.Duration {
	return sessionTTL + time.Duration(rand.Int63n(int64(sessionJitter)))
}
