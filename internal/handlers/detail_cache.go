package handlers

import (
	"sync"

	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// detailCacheSize bounds the number of open detail pages kept per gateway.
const detailCacheSize = 256

// detailCache keeps opened detail pages so actions reuse the page a client
// loaded. Entries are keyed by viewer and route and evicted oldest first.
type detailCache struct {
	limit int

	mu    sync.Mutex
	order []string
	items map[string]*viewstate.Detail
}

func newDetailCache(limit int) *detailCache {
	if limit <= 0 {
		limit = detailCacheSize
	}
	return &detailCache{limit: limit, items: make(map[string]*viewstate.Detail, limit)}
}

// get returns the cached page for the viewer, creating it with open when absent.
func (c *detailCache) get(viewer string, mediaType models.MediaType, id string, open func() *viewstate.Detail) *viewstate.Detail {
	key := viewer + "|" + models.Route(mediaType, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.items[key]; ok {
		return d
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	d := open()
	c.items[key] = d
	c.order = append(c.order, key)
	return d
}
