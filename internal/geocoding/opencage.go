package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
	"golang.org/x/time/rate"
)

// OpenCageBaseURL -- OpenCage geocoding API base URL.
const OpenCageBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// Columns written by the OpenCage provider besides the capitalized place
// component columns.
const (
	CombinedLocationColumn = "Ubicacion"
	Alpha3Column           = "Alpha-3"
	OSMURLColumn           = "Url(open street map)"
)

// OpenCageProvider reverse-geocodes a coordinate into structured place
// components using the OpenCage API.
type OpenCageProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the OpenCage API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// OpenCage API response (simplified for the reverse-geocoding use-case).
// Component values are not uniformly strings (ISO_3166-2 is an array), so the
// components object is decoded loosely.
type openCageResponse struct {
	Results []struct {
		Components  map[string]any `json:"components"`
		Annotations struct {
			OSM struct {
				URL string `json:"url"`
			} `json:"OSM"`
		} `json:"annotations"`
	} `json:"results"`
}

// NewOpenCageProvider creates a new OpenCage reverse-geocoding provider.
func NewOpenCageProvider(apiKey string, rateLimit int, log *slog.Logger) *OpenCageProvider {
	const timeout = 10

	return &OpenCageProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewOpenCageProviderWithClient allows injecting custom HTTP client.
func NewOpenCageProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *OpenCageProvider {
	return &OpenCageProvider{
		client:  client,
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Name returns the provider identifier used for metrics and logging.
func (op *OpenCageProvider) Name() string {
	return string(ProviderTypeOpenCage)
}

// Lookup queries the OpenCage API for a single coordinate and extracts the
// place components listed in PlaceKeys, the ISO alpha-3 country code and the
// OpenStreetMap URL. An empty result set is reported as ErrNoData.
func (op *OpenCageProvider) Lookup(ctx context.Context, coord models.Coordinate) (Result, error) {
	// Rate limit
	if err := op.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	op.log.DebugContext(ctx, "Reverse geocoding using OpenCage", "lat", coord.Latitude, "lon", coord.Longitude)

	reqURL, err := url.Parse(op.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("key", op.apiKey)
	query.Set("q", formatCoordinate(coord))
	query.Set("language", "en")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Headers
	req.Header.Set("Accept", "application/json")

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		op.log.ErrorContext(ctx, "OpenCage API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("opencage API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result openCageResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode opencage response: %w", err)
	}

	if len(result.Results) == 0 {
		op.log.WarnContext(ctx, "OpenCage found no results", "lat", coord.Latitude, "lon", coord.Longitude)
		return nil, ErrNoData
	}

	top := result.Results[0]
	fields := make(map[string]string, len(PlaceKeys))
	for _, key := range PlaceKeys {
		fields[key] = componentString(top.Components, key)
	}

	return Placement{
		Fields: fields,
		Alpha3: componentString(top.Components, "ISO_3166-1_alpha-3"),
		URL:    top.Annotations.OSM.URL,
	}, nil
}

// Apply writes one capitalized column per place component, the combined
// location column joined from the non-empty components in PlaceKeys order, the
// alpha-3 code and the OpenStreetMap URL. When every component is empty the
// row is left untouched.
func (op *OpenCageProvider) Apply(row table.Row, result Result) {
	placement, ok := result.(Placement)
	if !ok {
		return
	}

	parts := make([]string, 0, len(PlaceKeys))
	for _, key := range PlaceKeys {
		if placement.Fields[key] != "" {
			parts = append(parts, placement.Fields[key])
		}
	}

	if len(parts) == 0 {
		op.log.Warn("Location unavailable, leaving row unenriched")
		return
	}

	for _, key := range PlaceKeys {
		row.Set(capitalize(key), placement.Fields[key])
	}
	row.Set(CombinedLocationColumn, strings.Join(parts, ", "))
	row.Set(Alpha3Column, placement.Alpha3)
	row.Set(OSMURLColumn, placement.URL)
}

// ApplyMiss leaves the row untouched: OpenCage columns are omitted on a miss.
func (op *OpenCageProvider) ApplyMiss(_ table.Row, _ error) {}

func componentString(components map[string]any, key string) string {
	value, _ := components[key].(string)
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatCoordinate(coord models.Coordinate) string {
	lat := strconv.FormatFloat(coord.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(coord.Longitude, 'f', -1, 64)

	return lat + "," + lon
}
