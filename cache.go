package components

import (
	"fmt"
	"hash/fnv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// templateCache holds compiled templates keyed by template identity
// (component name plus a hash of the source, so replacing a registration
// with new source never serves stale nodes). A positive size bounds the
// cache with least-recently-used eviction; UnboundedCacheSize disables
// eviction.
type templateCache struct {
	lru *lru.Cache[string, *parsedTemplate]

	mu sync.RWMutex
	m  map[string]*parsedTemplate
}

func newTemplateCache(size int) *templateCache {
	if size == UnboundedCacheSize {
		return &templateCache{m: map[string]*parsedTemplate{}}
	}
	c, err := lru.New[string, *parsedTemplate](size)
	if err != nil {
		// invalid sizes are rejected by Settings validation before this
		panic(err)
	}
	return &templateCache{lru: c}
}

func (c *templateCache) get(key string) (*parsedTemplate, bool) {
	if c.lru != nil {
		return c.lru.Get(key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	pt, ok := c.m[key]
	return pt, ok
}

func (c *templateCache) add(key string, pt *parsedTemplate) {
	if c.lru != nil {
		c.lru.Add(key, pt)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = pt
}

func (c *templateCache) len() int {
	if c.lru != nil {
		return c.lru.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func templateKey(name, src string) string {
	h := fnv.New64a()
	h.Write([]byte(src))
	return fmt.Sprintf("%s@%x", name, h.Sum64())
}
