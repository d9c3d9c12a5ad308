package memory

import (
	"context"
	"sync"
	"time"
)

// TokenStore keeps refresh tokens and revoked access tokens in process.
// Expired entries are dropped lazily on read.
type TokenStore struct {
	clock func() time.Time

	mu        sync.Mutex
	refresh   map[string]expiring
	blacklist map[string]time.Time
}

type expiring struct {
	value     string
	expiresAt time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		clock:     time.Now,
		refresh:   make(map[string]expiring),
		blacklist: make(map[string]time.Time),
	}
}

func (s *TokenStore) StoreRefreshToken(_ context.Context, userID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[userID] = expiring{value: token, expiresAt: s.clock().Add(ttl)}
	return nil
}

func (s *TokenStore) ValidateRefreshToken(_ context.Context, userID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.refresh[userID]
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.refresh, userID)
		return false, nil
	}
	return entry.value == token, nil
}

func (s *TokenStore) DeleteRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, userID)
	return nil
}

func (s *TokenStore) BlacklistToken(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = s.clock().Add(ttl)
	return nil
}

func (s *TokenStore) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.blacklist[token]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(s.clock()) {
		delete(s.blacklist, token)
		return false, nil
	}
	return true, nil
}
