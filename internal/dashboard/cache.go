// Package dashboard serves the normalized wine tables over HTTP.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/normalize"
	"github.com/sells-group/wine-cli/internal/table"
)

// Source provides the persisted tables. table.Dir implements it.
type Source interface {
	Load(ctx context.Context, country string) (*table.Table, error)
	Raw(country string) ([]byte, error)
}

// Cache holds one normalized Dataset per country, loaded on first use.
type Cache struct {
	mu      sync.Mutex
	src     Source
	norm    *normalize.Normalizer
	entries map[string]*model.Dataset
}

// NewCache creates an empty cache over src.
func NewCache(src Source, norm *normalize.Normalizer) *Cache {
	return &Cache{
		src:     src,
		norm:    norm,
		entries: make(map[string]*model.Dataset),
	}
}

// Get returns the cached dataset for country, loading it if needed.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, country string) (*model.Dataset, error) {
	key := strings.ToLower(country)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.entries[key]; ok {
		return ds, nil
	}
	return c.load(ctx, key)
}

// Invalidate drops the cached dataset for country.
func (c *Cache) Invalidate(country string) {
	c.mu.Lock()
	delete(c.entries, strings.ToLower(country))
	c.mu.Unlock()
}

// Reload replaces the cached dataset with a fresh read of the table.
// On failure the previous entry is dropped.
func (c *Cache) Reload(ctx context.Context, country string) (*model.Dataset, error) {
	key := strings.ToLower(country)

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return c.load(ctx, key)
}

// Loaded returns the countries currently cached, sorted.
func (c *Cache) Loaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) load(ctx context.Context, key string) (*model.Dataset, error) {
	t, err := c.src.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	ds, err := c.norm.Normalize(t, key)
	if err != nil {
		return nil, err
	}
	c.entries[key] = ds

	zap.L().Info("dashboard: dataset loaded",
		zap.String("country", key),
		zap.Int("wines", len(ds.Wines)),
		zap.Int("vocabulary", len(ds.Vocabulary)),
	)
	return ds, nil
}
