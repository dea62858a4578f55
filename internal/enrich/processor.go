// Package enrich drives the per-row enrichment of a loaded table through one
// geolocation provider, with a per-run coordinate cache in front of the
// external calls.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/demeter/internal/geocoding"
	"github.com/UnknownOlympus/demeter/internal/metrics"
	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
)

// Input columns every enrichable row must carry.
const (
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
)

// ErrTooManyRows is returned when the table exceeds the configured row cap.
var ErrTooManyRows = errors.New("table exceeds the row limit")

// Processor iterates a table top-to-bottom and enriches every row that carries
// usable coordinates. One Processor serves one provider; every Process call
// owns a fresh cache, so concurrent uploads never share state.
type Processor struct {
	log           *slog.Logger       // Logger for logging processing activity
	provider      geocoding.Provider // Geolocation provider for external lookups
	metrics       *metrics.Metrics   // Metrics for tracking processing performance
	lookupTimeout time.Duration      // Deadline applied to each external call
	maxRows       int                // Upper bound on table size, 0 means unlimited
}

// NewProcessor creates a Processor for the given provider.
func NewProcessor(
	log *slog.Logger,
	provider geocoding.Provider,
	appMetrics *metrics.Metrics,
	lookupTimeout time.Duration,
	maxRows int,
) *Processor {
	return &Processor{
		log:           log,
		provider:      provider,
		metrics:       appMetrics,
		lookupTimeout: lookupTimeout,
		maxRows:       maxRows,
	}
}

// Process enriches the table in place, row by row, in row order. Rows without
// usable coordinates pass through untouched and trigger no external call. A
// failed or empty lookup degrades only its own row: the provider writes its
// documented miss representation and the batch continues. Row count and order
// are invariant.
func (p *Processor) Process(ctx context.Context, tbl *table.Table) error {
	if p.maxRows > 0 && tbl.Len() > p.maxRows {
		return fmt.Errorf("%w: got %d rows, limit is %d", ErrTooManyRows, tbl.Len(), p.maxRows)
	}

	cache := NewCache()
	name := p.provider.Name()

	p.log.InfoContext(ctx, "Processing table", "provider", name, "rows", tbl.Len())

	for i := range tbl.Len() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processing interrupted: %w", err)
		}

		row := tbl.Row(i)
		coord, ok := rowCoordinate(row)
		if !ok {
			p.log.DebugContext(ctx, "Row has no usable coordinates, passing through", "row", i)
			p.metrics.RowsProcessed.WithLabelValues("skipped").Inc()
			continue
		}

		result, hit, err := cache.GetOrFetch(ctx, coord, p.lookup)
		if hit {
			p.metrics.CacheHits.WithLabelValues(name).Inc()
		}

		if err != nil {
			if errors.Is(err, geocoding.ErrNoData) {
				p.log.WarnContext(ctx, "Provider has no data for coordinate",
					"provider", name, "row", i, "lat", coord.Latitude, "lon", coord.Longitude)
				p.metrics.RowsProcessed.WithLabelValues("no_data").Inc()
			} else {
				p.log.ErrorContext(ctx, "Provider lookup failed",
					"provider", name, "row", i, "lat", coord.Latitude, "lon", coord.Longitude, "error", err)
				p.metrics.RowsProcessed.WithLabelValues("failure").Inc()
				p.metrics.APIErrors.Inc()
			}

			p.provider.ApplyMiss(row, err)
			continue
		}

		p.provider.Apply(row, result)
		p.metrics.RowsProcessed.WithLabelValues("success").Inc()
	}

	p.log.InfoContext(ctx, "Finished processing table",
		"provider", name, "rows", tbl.Len(), "unique_coordinates", cache.Len())

	return nil
}

// lookup performs one timed external call with the configured deadline.
func (p *Processor) lookup(ctx context.Context, coord models.Coordinate) (geocoding.Result, error) {
	if p.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.lookupTimeout)
		defer cancel()
	}

	startTime := time.Now()
	result, err := p.provider.Lookup(ctx, coord)
	p.metrics.RequestSeconds.WithLabelValues(p.provider.Name()).Observe(time.Since(startTime).Seconds())

	return result, err
}

// rowCoordinate reads the latitude/longitude cells of a row. It reports false
// when either is missing, blank or not numeric.
func rowCoordinate(row table.Row) (models.Coordinate, bool) {
	lat, ok := row.Float(LatitudeColumn)
	if !ok {
		return models.Coordinate{}, false
	}

	lon, ok := row.Float(LongitudeColumn)
	if !ok {
		return models.Coordinate{}, false
	}

	return models.Coordinate{Latitude: lat, Longitude: lon}, true
}
