package memory

import (
	"ai-buildguide-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ResolutionCache holds one immutable entry per barcode for the process
// lifetime. Entries never expire; Delete and Flush are the only refresh.
type ResolutionCache struct {
	cache *cache.Cache
}

func NewResolutionCache() *ResolutionCache {
	// cleanup interval 0: nothing expires, so no janitor goroutine
	return &ResolutionCache{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *ResolutionCache) Get(barcode string) (*store.ResolutionEntry, bool) {
	if x, found := r.cache.Get(barcode); found {
		return x.(*store.ResolutionEntry), true
	}
	return nil, false
}

// Put stores entry unless one exists already. It returns the entry that is
// now cached and whether it was the one passed in.
func (r *ResolutionCache) Put(entry *store.ResolutionEntry) (*store.ResolutionEntry, bool) {
	if err := r.cache.Add(entry.Barcode, entry, cache.NoExpiration); err != nil {
		if existing, ok := r.Get(entry.Barcode); ok {
			return existing, false
		}
		// deleted between Add and Get
		r.cache.Set(entry.Barcode, entry, cache.NoExpiration)
	}
	return entry, true
}

func (r *ResolutionCache) Delete(barcode string) {
	r.cache.Delete(barcode)
}

func (r *ResolutionCache) Flush() {
	r.cache.Flush()
}

func (r *ResolutionCache) Len() int {
	return r.cache.ItemCount()
}

// Entries returns every cached entry, in no particular order.
func (r *ResolutionCache) Entries() []*store.ResolutionEntry {
	items := r.cache.Items()
	out := make([]*store.ResolutionEntry, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*store.ResolutionEntry))
	}
	return out
}
