// Package cache implements a TTL-expiring name/type -> record cache, built
// atop the label tree so cache and zone storage share one traversal scheme.
package cache

import (
	"sync"
	"time"

	"github.com/corvidlabs/dnsflow/internal/tree"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

// Status is the outcome of a cache lookup.
type Status int

const (
	Miss Status = iota
	Hit
	Expired
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Expired:
		return "expired"
	default:
		return "miss"
	}
}

// entry pairs a record with the absolute instant it stops being valid.
type entry struct {
	record   wire.Record
	expireAt time.Time
}

// Cache is a name -> (type -> entries) mapping layered over a tree. Lookups
// lazily evict entries whose expiry has passed; nothing sweeps in the
// background.
type Cache struct {
	mu   sync.Mutex
	tree *tree.Tree
	// byType mirrors the tree's node contents split by RType, since the
	// tree itself stores one flat []Record per node and cache lookups
	// are always scoped to one type.
	byType map[int]map[wire.RType][]entry
	now    func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		tree:   tree.New(),
		byType: make(map[int]map[wire.RType][]entry),
		now:    time.Now,
	}
}

// Insert stores records under name, each with an expiry of now + its TTL
// seconds. now is computed once per call so that all records inserted
// together expire off the same base instant.
func (c *Cache) Insert(name wire.Name, records []wire.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	idx, ok := c.tree.FindIndex(name)
	if !ok {
		c.tree.InsertMany(name, nil) // materialize the node
		idx, _ = c.tree.FindIndex(name)
	}

	byType := c.byType[idx]
	if byType == nil {
		byType = make(map[wire.RType][]entry)
		c.byType[idx] = byType
	}

	for _, rec := range records {
		expireAt := saturatingAdd(now, rec.Header.TTL)
		byType[rec.Header.Type] = append(byType[rec.Header.Type], entry{record: rec, expireAt: expireAt})
	}
}

func saturatingAdd(now time.Time, ttlSeconds uint32) time.Time {
	d := time.Duration(ttlSeconds) * time.Second
	if d/time.Second != time.Duration(ttlSeconds) {
		// Overflowed converting to a Duration; treat as "forever" within
		// the lifetime of this process.
		return time.Unix(1<<62, 0)
	}
	return now.Add(d)
}

// Lookup returns the non-expired records of type ty stored for name,
// evicting any expired entries it encounters along the way.
func (c *Cache) Lookup(name wire.Name, ty wire.RType) ([]wire.Record, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.tree.FindIndex(name)
	if !ok {
		return nil, Miss
	}
	byType := c.byType[idx]
	if byType == nil {
		return nil, Miss
	}
	entries := byType[ty]
	if entries == nil {
		return nil, Miss
	}

	now := c.now()
	live := entries[:0:0]
	sawExpired := false
	for _, e := range entries {
		if e.expireAt.After(now) {
			live = append(live, e)
		} else {
			sawExpired = true
		}
	}
	byType[ty] = live

	if len(live) == 0 {
		if sawExpired {
			return nil, Expired
		}
		return nil, Miss
	}

	records := make([]wire.Record, len(live))
	for i, e := range live {
		records[i] = e.record
	}
	return records, Hit
}
