package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
)

// Provider is a single external geolocation service together with the mapping
// of its responses into table columns.
//
// Lookup performs exactly one outbound call for the given coordinate and
// returns the provider's result, ErrNoData when the service answered without a
// usable result, or another error when the call itself failed. No retries.
//
// Apply writes a successful result into the row. ApplyMiss writes whatever the
// provider documents for a coordinate without data or a failed call; for most
// providers that is nothing at all.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, coord models.Coordinate) (Result, error)
	Apply(row table.Row, result Result)
	ApplyMiss(row table.Row, err error)
}

// Result is a provider response normalized for column mapping. The concrete
// types are Elevation, Placement and AddressList.
type Result interface {
	result()
}

// Elevation is a single elevation value in meters.
type Elevation struct {
	Meters float64
}

// Placement holds the structured place components of a reverse-geocoded
// coordinate. Fields is keyed by the lowercase component names in PlaceKeys;
// absent components hold an empty string.
type Placement struct {
	Fields map[string]string
	Alpha3 string // ISO 3166-1 alpha-3 country code
	URL    string // canonical OpenStreetMap URL for the location
}

// AddressList is a ranked list of up to five formatted addresses.
type AddressList struct {
	Addresses []string
}

func (Elevation) result()   {}
func (Placement) result()   {}
func (AddressList) result() {}

// PlaceKeys is the fixed order in which place components are extracted and
// joined into the combined location column.
var PlaceKeys = []string{
	"village", "town", "county", "city", "province", "state", "region", "district", "country",
}

// Common errors shared by all providers.
var (
	// ErrNoData means the provider responded successfully but had no usable
	// result for the coordinate. It is never cached, so a later row with the
	// same coordinate retries the call.
	ErrNoData = errors.New("provider returned no data for coordinate")

	// ErrUnauthorized means the provider rejected the supplied API key.
	ErrUnauthorized = errors.New("provider rejected the API key")
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
