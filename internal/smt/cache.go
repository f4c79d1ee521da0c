package smt

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is a concurrent, content-addressed result cache: (SHA-256 of the
// script text, timeout) -> Result. The script is hashed exactly as given;
// it is not normalized, so two scripts that differ only in declaration
// order, naming or whitespace get separate entries. Writes are idempotent since Proven
// and Disproven are stable facts about the formula (spec §5, "Shared
// resources").
type Cache struct {
	mu sync.RWMutex
	m  map[string]Result
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]Result)}
}

func cacheKey(script string, timeout time.Duration) string {
	h := sha256.Sum256([]byte(script))
	return hex.EncodeToString(h[:]) + ":" + timeout.String()
}

func (c *Cache) Get(script string, timeout time.Duration) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[cacheKey(script, timeout)]
	return r, ok
}

func (c *Cache) Put(script string, timeout time.Duration, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[cacheKey(script, timeout)] = r
}
