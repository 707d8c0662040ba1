package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheStore keeps sessions in process memory. A zero ttl keeps them for the
// life of the process.
type CacheStore struct {
	cache *cache.Cache
}

func NewCacheStore(ttl time.Duration) *CacheStore {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
	}
	return &CacheStore{cache: cache.New(expiration, cleanup)}
}

func (s *CacheStore) Get(_ context.Context, id string) (State, bool, error) {
	if x, found := s.cache.Get(id); found {
		return clone(x.(State)), true, nil
	}
	return State{}, false, nil
}

func (s *CacheStore) Put(_ context.Context, id string, st State) error {
	s.cache.Set(id, clone(st), cache.DefaultExpiration)
	return nil
}
