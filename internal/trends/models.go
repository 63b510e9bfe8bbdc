// Package trends computes pollution trend summaries for cities.
package trends

import (
	"errors"
	"time"
)

// Analysis errors.
var (
	// ErrNoMatchingCities is returned when a selection query matches
	// nothing in the dataset.
	ErrNoMatchingCities = errors.New("no matching cities")

	// ErrInsufficientData is returned when a series has no AQI values
	// to aggregate.
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// TrendDirection classifies the long-term AQI trend of a city.
type TrendDirection string

const (
	// TrendImproving means AQI is falling (air quality getting better).
	TrendImproving TrendDirection = "improving"

	// TrendWorsening means AQI is rising (air quality getting worse).
	TrendWorsening TrendDirection = "worsening"

	// TrendStable means the slope is within the threshold, or the
	// series is too short to judge.
	TrendStable TrendDirection = "stable"
)

// UnknownPollutant is reported when a series carries no pollutant
// readings at all.
const UnknownPollutant = "unknown"

// CitySelection is a resolved (city, country) pair known to the dataset.
type CitySelection struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Point is a single dated observation in a time series. At most one
// point exists per date after deduplication.
type Point struct {
	// Date is the observation date at day resolution.
	Date time.Time `json:"date"`

	// AQI is the Air Quality Index for the day; only meaningful when
	// HasAQI is true.
	AQI float64 `json:"aqi"`

	// HasAQI reports whether an AQI value was observed for this date.
	HasAQI bool `json:"hasAqi"`

	// Pollutants maps pollutant name to mean concentration for the day.
	Pollutants map[string]float64 `json:"pollutants,omitempty"`
}

// TimeSeries is the ordered AQI history of one city, sorted ascending
// by date with at most one point per date.
type TimeSeries struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	Points  []Point `json:"points"`
}

// Len returns the number of points in the series.
func (ts TimeSeries) Len() int {
	return len(ts.Points)
}

// DateRange returns the first and last observation dates. ok is false
// for an empty series.
func (ts TimeSeries) DateRange() (start, end time.Time, ok bool) {
	if len(ts.Points) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return ts.Points[0].Date, ts.Points[len(ts.Points)-1].Date, true
}

// DateRange is the inclusive observation window of a series.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TrendSummary is the analysis result for one city. It is a pure
// function of the input series and is never mutated after construction.
type TrendSummary struct {
	// City and Country identify the analyzed series.
	City    string `json:"city"`
	Country string `json:"country"`

	// AverageAQI is the arithmetic mean over points with an AQI value.
	AverageAQI float64 `json:"averageAqi"`

	// PrimaryPollutant is the pollutant with the highest mean
	// concentration, or UnknownPollutant when no readings exist.
	PrimaryPollutant string `json:"primaryPollutant"`

	// TrendDirection classifies the regression slope.
	TrendDirection TrendDirection `json:"trendDirection"`

	// TrendStrength is the regression slope in AQI units per day.
	TrendStrength float64 `json:"trendStrength"`

	// SampleCount is the number of points in the input series.
	SampleCount int `json:"sampleCount"`

	// DateRange spans the first to last observation date.
	DateRange DateRange `json:"dateRange"`
}
