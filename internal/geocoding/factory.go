package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geolocation provider.
type ProviderType string

const (
	// ProviderTypeElevation represents the Google Elevation API provider.
	ProviderTypeElevation ProviderType = "elevation"
	// ProviderTypeOpenCage represents the OpenCage reverse-geocoding provider.
	ProviderTypeOpenCage ProviderType = "opencage"
	// ProviderTypeGoogleGeocode represents the Google reverse-geocoding provider.
	ProviderTypeGoogleGeocode ProviderType = "googlegeocode"
)

// ProviderConfig holds configuration for creating a geolocation provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key, supplied per upload request
	RateLimit int          // Rate limit for requests per second
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a geolocation provider based on the provided
// configuration. It applies the Factory pattern to decouple provider
// instantiation from the enrichment logic.
//
// Supported provider types:
// - "elevation": Google Elevation API (requires API key)
// - "opencage": OpenCage reverse-geocoding API (requires API key)
// - "googlegeocode": Google reverse-geocoding API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeElevation:
		return newElevationProvider(config)
	case ProviderTypeOpenCage:
		return newOpenCageProvider(config)
	case ProviderTypeGoogleGeocode:
		return newGoogleGeocodeProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newElevationProvider creates a Google Elevation API provider.
func newElevationProvider(config ProviderConfig) (Provider, error) {
	client, err := newMapsClient(config, "Elevation")
	if err != nil {
		return nil, err
	}

	return NewElevationProvider(client, config.Logger), nil
}

// newGoogleGeocodeProvider creates a Google reverse-geocoding provider.
func newGoogleGeocodeProvider(config ProviderConfig) (Provider, error) {
	client, err := newMapsClient(config, "Google geocoding")
	if err != nil {
		return nil, err
	}

	return NewGoogleGeocodeProvider(client, config.Logger), nil
}

// newOpenCageProvider creates an OpenCage reverse-geocoding provider.
func newOpenCageProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for OpenCage provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for OpenCage API not set, set a default value", "value", config.RateLimit)
	}

	return NewOpenCageProvider(config.APIKey, config.RateLimit, config.Logger), nil
}

// newMapsClient builds a Google Maps client with API key and rate limiting.
func newMapsClient(config ProviderConfig, name string) (*maps.Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for %s provider", name)
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	// Apply rate limiting if specified
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return client, nil
}
