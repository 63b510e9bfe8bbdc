package models

// CityRef identifies a resolved (city, country) pair.
type CityRef struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// SelectCitiesRequest is the body of POST /v1/cities:select.
type SelectCitiesRequest struct {
	// Query is a free-text city name fragment.
	Query string `json:"query,omitempty"`

	// Country restricts matches to one country.
	Country string `json:"country,omitempty"`

	// RandomCount requests N random cities when Query and Country are
	// empty, and caps match counts otherwise.
	RandomCount int `json:"randomCount,omitempty"`
}

// SelectionMeta reports how a selection request was satisfied.
type SelectionMeta struct {
	RequestedCount int `json:"requestedCount"`
	ReturnedCount  int `json:"returnedCount"`
}

// SelectCitiesResponse is the response of POST /v1/cities:select.
type SelectCitiesResponse struct {
	Cities []CityRef     `json:"cities"`
	Meta   SelectionMeta `json:"meta"`
}

// FetchRecordsRequest is the body of POST /v1/records:fetch.
type FetchRecordsRequest struct {
	Cities []CityRef `json:"cities"`
}

// SeriesPoint is one dated observation in a series payload.
type SeriesPoint struct {
	Date Timestamp `json:"date"`

	// AQI is absent when the day carried no AQI observation.
	AQI *float64 `json:"aqi,omitempty"`

	Pollutants map[string]float64 `json:"pollutants,omitempty"`
}

// Series is the wire form of one city's time series.
type Series struct {
	City    string        `json:"city"`
	Country string        `json:"country"`
	Points  []SeriesPoint `json:"points"`
}

// FetchRecordsResponse is the response of POST /v1/records:fetch.
type FetchRecordsResponse struct {
	Series map[string]Series `json:"series"`
}

// AnalyzeTrendsRequest is the body of POST /v1/trends:analyze.
type AnalyzeTrendsRequest struct {
	Series map[string]Series `json:"series"`
}

// DateRange is the inclusive observation window of a series.
type DateRange struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// TrendSummary is the wire form of one city's analysis result.
type TrendSummary struct {
	City             string    `json:"city"`
	Country          string    `json:"country"`
	AverageAQI       float64   `json:"averageAqi"`
	PrimaryPollutant string    `json:"primaryPollutant"`
	TrendDirection   string    `json:"trendDirection"`
	TrendStrength    float64   `json:"trendStrength"`
	SampleCount      int       `json:"sampleCount"`
	DateRange        DateRange `json:"dateRange"`
}

// AnalyzeTrendsResponse is the response of POST /v1/trends:analyze.
type AnalyzeTrendsResponse struct {
	Summaries map[string]TrendSummary `json:"summaries"`
}

// PlotTrendsRequest is the body of POST /v1/trends:plot.
type PlotTrendsRequest struct {
	Series map[string]Series `json:"series"`

	// OutputPath overrides the default artifact location.
	OutputPath string `json:"outputPath,omitempty"`
}

// PlotTrendsResponse is the response of POST /v1/trends:plot.
type PlotTrendsResponse struct {
	Path string `json:"path"`
}
