package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
	"googlemaps.github.io/maps"
)

// AddressColumnCount is the fixed number of formatted_address columns every
// successfully processed row ends up with, regardless of how many addresses
// the API returned.
const AddressColumnCount = 5

// Sentinels written into the address columns when the lookup produced nothing.
const (
	unknownLocationValue = "Ubicación desconocida"
	lookupFailedValue    = "Error al consultar la API de Google"
)

// GeocodeAPIClient is the part of the Google Maps client used by the reverse
// geocoding provider.
type GeocodeAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleGeocodeProvider reverse-geocodes a coordinate into a ranked list of
// formatted addresses using the Google Geocoding API.
type GoogleGeocodeProvider struct {
	client GeocodeAPIClient // client is the Google Maps API client
	log    *slog.Logger     // log is the logger for logging operations
}

// NewGoogleGeocodeProvider initializes a GoogleGeocodeProvider with the given API client.
func NewGoogleGeocodeProvider(client GeocodeAPIClient, log *slog.Logger) *GoogleGeocodeProvider {
	return &GoogleGeocodeProvider{client: client, log: log}
}

// Name returns the provider identifier used for metrics and logging.
func (gp *GoogleGeocodeProvider) Name() string {
	return string(ProviderTypeGoogleGeocode)
}

// Lookup reverse-geocodes a single coordinate. The result always carries
// exactly AddressColumnCount addresses; positions beyond what the API returned
// are empty strings. An empty result set is reported as ErrNoData.
func (gp *GoogleGeocodeProvider) Lookup(ctx context.Context, coord models.Coordinate) (Result, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coord.Latitude, "lon", coord.Longitude)

	req := maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coord.Latitude, Lng: coord.Longitude},
	}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoData
	}

	addresses := make([]string, AddressColumnCount)
	for i := range addresses {
		if i < len(results) {
			addresses[i] = results[i].FormattedAddress
		}
	}

	return AddressList{Addresses: addresses}, nil
}

// Apply writes the formatted_address1..formatted_address5 columns. All five
// columns are always populated so the column set stays stable across rows.
func (gp *GoogleGeocodeProvider) Apply(row table.Row, result Result) {
	list, ok := result.(AddressList)
	if !ok {
		return
	}

	for i := range AddressColumnCount {
		value := ""
		if i < len(list.Addresses) {
			value = list.Addresses[i]
		}
		row.Set(addressColumn(i), value)
	}
}

// ApplyMiss fills all five address columns with the documented sentinel:
// "unknown location" when the API had no result, the API error text otherwise.
// This deliberately differs from the other providers, which omit their columns
// on a miss.
func (gp *GoogleGeocodeProvider) ApplyMiss(row table.Row, err error) {
	value := lookupFailedValue
	if errors.Is(err, ErrNoData) {
		value = unknownLocationValue
	}

	for i := range AddressColumnCount {
		row.Set(addressColumn(i), value)
	}
}

func addressColumn(i int) string {
	return fmt.Sprintf("formatted_address%d", i+1)
}
