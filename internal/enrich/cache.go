package enrich

import (
	"context"

	"github.com/UnknownOlympus/demeter/internal/geocoding"
	"github.com/UnknownOlympus/demeter/internal/models"
)

// FetchFunc resolves a coordinate through an external provider on a cache miss.
type FetchFunc func(ctx context.Context, coord models.Coordinate) (geocoding.Result, error)

// Cache maps a coordinate to a previously fetched provider result within a
// single processing run. It keys on exact float64 equality, so it only
// de-duplicates coordinates that are byte-identical in the table. It is not
// safe for concurrent use; every run gets its own instance and runs its rows
// sequentially.
type Cache struct {
	entries map[models.Coordinate]geocoding.Result
}

// NewCache creates an empty coordinate cache for one processing run.
func NewCache() *Cache {
	return &Cache{entries: make(map[models.Coordinate]geocoding.Result)}
}

// GetOrFetch returns the stored result for the coordinate, or invokes fetch on
// a miss. Only successful fetches are stored: a coordinate whose fetch failed
// or returned no data is retried the next time it appears. The second return
// value reports whether the result came from the cache.
func (c *Cache) GetOrFetch(
	ctx context.Context,
	coord models.Coordinate,
	fetch FetchFunc,
) (geocoding.Result, bool, error) {
	if result, ok := c.entries[coord]; ok {
		return result, true, nil
	}

	result, err := fetch(ctx, coord)
	if err != nil {
		return nil, false, err
	}

	c.entries[coord] = result

	return result, false, nil
}

// Len returns the number of cached coordinates.
func (c *Cache) Len() int {
	return len(c.entries)
}
