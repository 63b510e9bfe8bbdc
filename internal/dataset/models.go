// Package dataset provides access to the air quality measurement dataset.
package dataset

import (
	"errors"
	"strings"
	"time"
)

// Dataset errors.
var (
	ErrCityNotFound  = errors.New("city not found in dataset")
	ErrInvalidSchema = errors.New("invalid dataset schema")
	ErrEmptyDataset  = errors.New("dataset contains no records")
)

// Record is a single air quality observation for a city on a given day.
// Records are immutable once loaded.
type Record struct {
	// City is the city name as it appears in the dataset.
	City string

	// Country is the country name as it appears in the dataset.
	Country string

	// Date is the observation date at day resolution (UTC midnight).
	Date time.Time

	// AQI is the composite Air Quality Index value for the day.
	// Only meaningful when HasAQI is true.
	AQI float64

	// HasAQI reports whether the AQI column was present for this row.
	HasAQI bool

	// Pollutants maps pollutant name (e.g. "PM2.5", "NO2") to its
	// measured concentration. Missing readings are absent from the map.
	Pollutants map[string]float64
}

// CityKey identifies a distinct (city, country) pair in the dataset.
type CityKey struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Key returns a case-insensitive lookup key for the pair.
func (k CityKey) Key() string {
	return strings.ToLower(k.City) + "\x00" + strings.ToLower(k.Country)
}

// Stats describes the loaded dataset.
type Stats struct {
	// Records is the total number of rows.
	Records int

	// Cities is the number of distinct (city, country) pairs.
	Cities int

	// Pollutants lists the pollutant columns found in the dataset.
	Pollutants []string
}
