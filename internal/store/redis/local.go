package redis

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultLocalEntries = 512

type localEntry struct {
	data []byte
	at   time.Time
}

// localCache is the bounded in-process cache used when Redis is disabled
// or the breaker is open. Entries leave on LRU pressure or once they are
// older than the stale TTL. Safe for concurrent use.
type localCache struct {
	lru *expirable.LRU[string, localEntry]
}

func newLocalCache(maxEntries int, ttl time.Duration) *localCache {
	if maxEntries <= 0 {
		maxEntries = defaultLocalEntries
	}
	return &localCache{lru: expirable.NewLRU[string, localEntry](maxEntries, nil, ttl)}
}

func (l *localCache) put(key string, data []byte, at time.Time) {
	l.lru.Add(key, localEntry{data: data, at: at})
}

func (l *localCache) get(key string) (localEntry, bool) {
	return l.lru.Get(key)
}

func (l *localCache) len() int { return l.lru.Len() }
