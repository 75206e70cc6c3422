package media

import (
	"container/list"
	"sync"
	"time"
)

const DefaultCacheEntries = 256

type Entry struct {
	URL         string
	Body        []byte
	ContentType string
	FetchedAt   time.Time
}

// Cache keeps the most recently warmed assets, evicting the least recently
// used entry once MaxEntries is reached.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	items      map[string]*list.Element
}

func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *Cache) Put(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[e.URL]; ok {
		el.Value = e
		c.ll.MoveToFront(el)
		return
	}
	c.items[e.URL] = c.ll.PushFront(e)
	for c.ll.Len() > c.maxEntries {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(Entry).URL)
	}
}

func (c *Cache) Get(url string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[url]
	if !ok {
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(Entry), true
}

func (c *Cache) Has(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[url]
	return ok
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
