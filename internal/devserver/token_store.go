package devserver

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenStore tracks which refresh tokens are currently valid. Refresh
// tokens are single-use: a successful refresh deletes the presented token
// and registers its replacement.
type TokenStore interface {
	StoreRefreshToken(email string, refreshToken string) error
	ValidateRefreshToken(email string, refreshToken string) bool
	DeleteRefreshToken(email string, refreshToken string)
}

type tokenStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewTokenStore(ttl time.Duration) TokenStore {
	return &tokenStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (s *tokenStore) StoreRefreshToken(email string, refreshToken string) error {
	key := refreshTokenKey(email, refreshToken)
	return s.cache.Add(key, "valid", s.ttl)
}

func (s *tokenStore) ValidateRefreshToken(email string, refreshToken string) bool {
	value, found := s.cache.Get(refreshTokenKey(email, refreshToken))
	return found && value == "valid"
}

func (s *tokenStore) DeleteRefreshToken(email string, refreshToken string) {
	s.cache.Delete(refreshTokenKey(email, refreshToken))
}

func refreshTokenKey(email, refreshToken string) string {
	return fmt.Sprintf("refresh_token:%s:%s", email, refreshToken)
}
