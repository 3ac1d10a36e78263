// Package category answers "is this text a member of that category" using
// per-category item sources registered once at startup. Upstream lookups are
// slow and unreliable; every source carries a curated fallback list so a
// validation call degrades instead of failing.
package category

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/cache"
)

// FetchFunc pulls the full item list for a category from an upstream API.
type FetchFunc func(ctx context.Context) ([]string, error)

const (
	fetchTimeout = 10 * time.Second
	// DefaultTTL bounds how long fetched item lists are trusted.
	DefaultTTL = 5 * time.Minute
)

type source struct {
	fetch    FetchFunc // nil for static categories
	fallback []string
}

type memEntry struct {
	items     map[string]struct{}
	expiresAt time.Time
}

// Registry maps category names to item sources. Register everything at
// startup; lookups afterward are concurrency-safe.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*source
	mem     map[string]memEntry

	items  *cache.ItemsCache // optional second-level cache, may be nil
	logger *logrus.Logger
	ttl    time.Duration
}

func NewRegistry(items *cache.ItemsCache, logger *logrus.Logger) *Registry {
	return &Registry{
		sources: map[string]*source{},
		mem:     map[string]memEntry{},
		items:   items,
		logger:  logger,
		ttl:     DefaultTTL,
	}
}

// Register binds a category to an upstream fetcher and its fallback list.
// A nil fetch makes the fallback the authoritative item list.
func (r *Registry) Register(name string, fetch FetchFunc, fallback []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = &source{fetch: fetch, fallback: fallback}
}

// Categories lists the registered category names, sorted.
func (r *Registry) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sources))
	for name := range r.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate reports whether text is a member of the category. The only error
// case is an unregistered category; upstream failures fall back silently.
func (r *Registry) Validate(ctx context.Context, category, text string) (bool, error) {
	items, err := r.itemSet(ctx, category)
	if err != nil {
		return false, err
	}
	_, ok := items[normalize(text)]
	return ok, nil
}

// Items returns the category's item list for browsing endpoints.
func (r *Registry) Items(ctx context.Context, category string) ([]string, error) {
	set, err := r.itemSet(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Registry) itemSet(ctx context.Context, category string) (map[string]struct{}, error) {
	r.mu.Lock()
	src, ok := r.sources[category]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if entry, hit := r.mem[category]; hit && time.Now().Before(entry.expiresAt) {
		r.mu.Unlock()
		return entry.items, nil
	}
	r.mu.Unlock()

	items := r.load(ctx, category, src)
	set := toSet(items)

	r.mu.Lock()
	r.mem[category] = memEntry{items: set, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return set, nil
}

// load resolves the item list: Redis cache, then upstream, then fallback.
func (r *Registry) load(ctx context.Context, category string, src *source) []string {
	if r.items != nil {
		cached, err := r.items.Get(ctx, category)
		if err != nil {
			r.logger.WithError(err).WithField("category", category).Warn("category cache read failed")
		} else if cached != nil {
			return cached
		}
	}

	if src.fetch != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		fetched, err := src.fetch(fetchCtx)
		cancel()
		if err == nil && len(fetched) > 0 {
			if r.items != nil {
				if cerr := r.items.Set(ctx, category, fetched); cerr != nil {
					r.logger.WithError(cerr).WithField("category", category).Warn("category cache write failed")
				}
			}
			r.logger.WithFields(logrus.Fields{"category": category, "count": len(fetched)}).Info("fetched category items")
			return fetched
		}
		r.logger.WithError(err).WithField("category", category).Warn("upstream category fetch failed, using fallback list")
	}
	return src.fallback
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[normalize(item)] = struct{}{}
	}
	return set
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
