// file: internals/features/finance/fee_structures/service/structure_cache.go
package service

import (
	"sync"
	"time"

	model "schoolfee_backend/internals/features/finance/fee_structures/model"

	"github.com/google/uuid"
)

type cacheKey struct {
	institutionID uuid.UUID
	academicYear  string
}

type cacheEntry struct {
	value   *model.FeeStructure
	expires time.Time
}

/*
structureCache is a read-through TTL cache of fee structures.

Each key carries a generation. invalidate bumps it, and put only stores a value
loaded under the current generation, so a read racing with a write can never
re-install the pre-write structure.
*/
type structureCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]cacheEntry
	gens    map[cacheKey]uint64
}

func newStructureCache(ttl time.Duration) *structureCache {
	return &structureCache{
		ttl:     ttl,
		now:     time.Now,
		entries: map[cacheKey]cacheEntry{},
		gens:    map[cacheKey]uint64{},
	}
}

func (c *structureCache) enabled() bool { return c != nil && c.ttl > 0 }

// get returns a private copy and the generation to hand back to put on a miss.
func (c *structureCache) get(k cacheKey) (*model.FeeStructure, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[k]
	e, ok := c.entries[k]
	if !ok {
		return nil, gen, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, k)
		return nil, gen, false
	}
	return e.value.Clone(), gen, true
}

func (c *structureCache) put(k cacheKey, gen uint64, v *model.FeeStructure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[k] != gen {
		return
	}
	c.entries[k] = cacheEntry{value: v.Clone(), expires: c.now().Add(c.ttl)}
}

func (c *structureCache) invalidate(k cacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[k]++
	delete(c.entries, k)
}
