package store

import (
	"sort"
	"sync"

	"salescrm/internal/models"
)

// LeadCache is the session-wide working set of leads keyed by id.
// Readers always get copies; the only writers are the mutation coordinator and the sync merge.
// Put and Update stamp the id with a write sequence so a merge can tell which entries changed
// after its listing was fetched.
type LeadCache struct {
	mu      sync.RWMutex
	leads   map[int]models.Lead
	seq     uint64
	written map[int]uint64
}

func NewLeadCache() *LeadCache {
	return &LeadCache{leads: make(map[int]models.Lead), written: make(map[int]uint64)}
}

// Epoch is the current write sequence. Take it before fetching a listing and pass it to
// Merge as MergeOptions.Since.
func (c *LeadCache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// caller holds c.mu
func (c *LeadCache) stamp(id int) {
	c.seq++
	c.written[id] = c.seq
}

func (c *LeadCache) Get(id int) (models.Lead, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.leads[id]
	if !ok {
		return models.Lead{}, false
	}
	return l.Clone(), true
}

// Snapshot returns every cached lead ordered by id.
func (c *LeadCache) Snapshot() []models.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Lead, 0, len(c.leads))
	for _, l := range c.leads {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *LeadCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.leads)
}

func (c *LeadCache) Put(l models.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leads[l.ID] = l.Clone()
	c.stamp(l.ID)
}

// Update runs fn on the cached lead under the write lock and stores the result.
// fn is not called when the id is absent. It reports whether a write happened.
func (c *LeadCache) Update(id int, fn func(current models.Lead) (models.Lead, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.leads[id]
	if !ok {
		return false
	}
	next, write := fn(current.Clone())
	if !write {
		return false
	}
	next.ID = id
	c.leads[id] = next.Clone()
	c.stamp(id)
	return true
}

// ReplaceIfPresent overwrites the entry for l.ID unless the id has been dropped meanwhile.
func (c *LeadCache) ReplaceIfPresent(l models.Lead) bool {
	return c.Update(l.ID, func(models.Lead) (models.Lead, bool) { return l, true })
}

// MergeResult summarizes one Merge call.
type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Kept    int `json:"kept"` // entries left alone: vetoed by Keep or written after Since
}

type MergeOptions struct {
	// Keep vetoes replacing or removing an id.
	Keep func(id int) bool
	// Since is the Epoch taken before the listing was fetched; ids written after it keep
	// their cached value.
	Since uint64
	// Prune removes cached ids missing from the listing. Leave it off for a partial listing.
	Prune bool
}

// Merge folds fresh into the cache. Merge writes do not advance the write sequence.
func (c *LeadCache) Merge(fresh []models.Lead, opts MergeOptions) MergeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	hold := func(id int) bool {
		if c.written[id] > opts.Since {
			return true
		}
		return opts.Keep != nil && opts.Keep(id)
	}

	var res MergeResult
	seen := make(map[int]struct{}, len(fresh))
	for _, l := range fresh {
		seen[l.ID] = struct{}{}
		_, exists := c.leads[l.ID]
		if exists && hold(l.ID) {
			res.Kept++
			continue
		}
		c.leads[l.ID] = l.Clone()
		if exists {
			res.Updated++
		} else {
			res.Added++
		}
	}
	if !opts.Prune {
		return res
	}
	for id := range c.leads {
		if _, ok := seen[id]; ok {
			continue
		}
		if hold(id) {
			res.Kept++
			continue
		}
		delete(c.leads, id)
		delete(c.written, id)
		res.Removed++
	}
	return res
}
