// Package cache provides the process-lifetime result cache that makes scan
// submissions idempotent: the same (target, profile) pair always returns
// the report generated by the first submission.
//
// The cache is split into shards selected by a murmur3 hash of the key so
// that concurrent submissions for different targets do not contend on one
// lock. Entries are never evicted or overwritten.
package cache

import (
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/waftester/scanreport/pkg/report"
)

const shardCount = 16

// Key returns the cache key of a (target, profile) pair.
func Key(target string, profile report.Profile) string {
	return target + "-" + string(profile)
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*report.ScanReport
}

// ResultCache maps (target, profile) to the report generated for it.
// It is safe for concurrent use. Reports are copied on the way in and on
// the way out, so callers may mutate what they receive.
type ResultCache struct {
	shards [shardCount]shard
}

// NewResultCache returns an empty cache.
func NewResultCache() *ResultCache {
	c := &ResultCache{}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*report.ScanReport)
	}
	return c
}

func (c *ResultCache) shardFor(key string) *shard {
	return &c.shards[murmur3.Sum32([]byte(key))%shardCount]
}

// Get returns a copy of the cached report for the pair.
func (c *ResultCache) Get(target string, profile report.Profile) (*report.ScanReport, bool) {
	key := Key(target, profile)
	s := c.shardFor(key)
	s.mu.RLock()
	r, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Put stores r unless the pair already has an entry. An existing entry
// always wins.
func (c *ResultCache) Put(target string, profile report.Profile, r *report.ScanReport) {
	c.PutIfAbsent(target, profile, r)
}

// PutIfAbsent stores r unless the pair already has an entry, and returns a
// copy of whichever report is cached afterwards. stored is true when r
// was the one stored.
func (c *ResultCache) PutIfAbsent(target string, profile report.Profile, r *report.ScanReport) (cached *report.ScanReport, stored bool) {
	key := Key(target, profile)
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok {
		return existing.Clone(), false
	}
	s.entries[key] = r.Clone()
	return r.Clone(), true
}

// Remove drops the entry for the pair, if any.
func (c *ResultCache) Remove(target string, profile report.Profile) {
	key := Key(target, profile)
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of cached reports.
func (c *ResultCache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
