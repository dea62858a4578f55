package models

// Coordinate represents a geographical point defined by its latitude and longitude.
// It is comparable and used as a per-run cache key; equality is exact float64
// equality, matching the values as they were read from the table.
type Coordinate struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}
