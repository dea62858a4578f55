package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
	"googlemaps.github.io/maps"
)

// ElevationColumn is the column written for a successful elevation lookup.
const ElevationColumn = "elevation"

// ElevationAPIClient is the part of the Google Maps client used by the
// elevation provider.
type ElevationAPIClient interface {
	Elevation(ctx context.Context, r *maps.ElevationRequest) ([]maps.ElevationResult, error)
}

// ElevationProvider fetches the elevation in meters for a coordinate using the
// Google Elevation API.
type ElevationProvider struct {
	client ElevationAPIClient // client is the Google Maps API client
	log    *slog.Logger       // log is the logger for logging operations
}

// NewElevationProvider initializes an ElevationProvider with the given API client.
func NewElevationProvider(client ElevationAPIClient, log *slog.Logger) *ElevationProvider {
	return &ElevationProvider{client: client, log: log}
}

// Name returns the provider identifier used for metrics and logging.
func (ep *ElevationProvider) Name() string {
	return string(ProviderTypeElevation)
}

// Lookup fetches the elevation for a single coordinate. An empty result set
// from the API is reported as ErrNoData.
func (ep *ElevationProvider) Lookup(ctx context.Context, coord models.Coordinate) (Result, error) {
	ep.log.DebugContext(ctx, "Looking up elevation", "lat", coord.Latitude, "lon", coord.Longitude)

	req := maps.ElevationRequest{
		Locations: []maps.LatLng{{Lat: coord.Latitude, Lng: coord.Longitude}},
	}
	results, err := ep.client.Elevation(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch elevation: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoData
	}

	return Elevation{Meters: results[0].Elevation}, nil
}

// Apply sets the elevation column on the row.
func (ep *ElevationProvider) Apply(row table.Row, result Result) {
	elevation, ok := result.(Elevation)
	if !ok {
		return
	}

	row.Set(ElevationColumn, strconv.FormatFloat(elevation.Meters, 'f', -1, 64))
}

// ApplyMiss leaves the row untouched: a coordinate without elevation gets no
// elevation column at all.
func (ep *ElevationProvider) ApplyMiss(_ table.Row, _ error) {}
