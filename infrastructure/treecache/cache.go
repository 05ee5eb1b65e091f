package treecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markpeek/remotes/domain"
)

// Key identifies one cached forest. MarkdownOnly is part of the key because
// the filtered and unfiltered forests of the same branch differ.
type Key struct {
	RepoKey      string
	Branch       string
	MarkdownOnly bool
}

// Entry is one cached forest plus the time it was fetched.
type Entry struct {
	Nodes     []*domain.TreeNode
	FetchedAt time.Time
}

// Fetcher loads a forest from the provider on a cache miss.
type Fetcher func(ctx context.Context) ([]*domain.TreeNode, error)

// Cache keeps fetched branch forests in memory for the lifetime of the
// process. Entries never expire on their own; invalidation is explicit.
// Concurrent loads of the same key collapse into a single provider call.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
	group   singleflight.Group
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*Entry),
		now:     time.Now,
	}
}

// Get returns the cached entry for the key, if present.
func (it *Cache) Get(key Key) (*Entry, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	entry, ok := it.entries[key]
	return entry, ok
}

// Put stores a forest, replacing any previous entry for the key.
func (it *Cache) Put(key Key, nodes []*domain.TreeNode) *Entry {
	entry := &Entry{Nodes: nodes, FetchedAt: it.now()}
	it.mu.Lock()
	it.entries[key] = entry
	it.mu.Unlock()
	return entry
}

// Invalidate drops cached forests of a repository. An empty branch drops
// every branch.
func (it *Cache) Invalidate(repoKey, branch string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	for key := range it.entries {
		if key.RepoKey != repoKey {
			continue
		}
		if branch != "" && key.Branch != branch {
			continue
		}
		delete(it.entries, key)
	}
}

// Len returns the number of cached forests.
func (it *Cache) Len() int {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return len(it.entries)
}

// FetchThrough returns the cached entry, or loads one with fetch. The second
// return value reports whether the entry came from the cache. Concurrent
// loads of the same key share one fetch; a caller whose context ends while
// waiting abandons the flight, which keeps running on the context of the
// caller that started it.
func (it *Cache) FetchThrough(ctx context.Context, key Key, fetch Fetcher) (*Entry, bool, error) {
	if entry, ok := it.Get(key); ok {
		return entry, true, nil
	}

	resultCh := it.group.DoChan(flightKey(key), func() (any, error) {
		nodes, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return it.Put(key, nodes), nil
	})

	select {
	case <-ctx.Done():
		return nil, false, domain.NewCancelled(ctx.Err())
	case result := <-resultCh:
		if result.Err != nil {
			return nil, false, result.Err
		}
		entry, ok := result.Val.(*Entry)
		if !ok {
			return nil, false, fmt.Errorf("unexpected cache entry type %T", result.Val)
		}
		return entry, false, nil
	}
}

func flightKey(key Key) string {
	return fmt.Sprintf("%s#%s#%t", key.RepoKey, key.Branch, key.MarkdownOnly)
}
