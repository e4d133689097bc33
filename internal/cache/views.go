package cache

import (
	"strconv"
	"time"

	"hesabdari/internal/core"
)

// Views memoizes derived views. Entries are keyed by store revision, so a
// mutation makes every older entry unreachable; they age out through LRU
// eviction or the TTL sweep.
type Views struct {
	lru *LRUCache[core.View]
}

func NewViews(size int, ttl time.Duration) *Views {
	return &Views{lru: NewLRUCache[core.View](size, ttl)}
}

// Get returns the cached view for (revision, filter) or computes it.
func (v *Views) Get(revision uint64, f core.Filter, derive func() core.View) core.View {
	key := strconv.FormatUint(revision, 10) + "#" + f.Key()
	if view, ok := v.lru.Get(key); ok {
		return view
	}
	view := derive()
	v.lru.Set(key, view)
	return view
}

func (v *Views) CleanExpired() int {
	return v.lru.CleanExpired()
}

func (v *Views) Stats() Stats {
	return v.lru.Stats()
}
