package trends

import (
	"context"
	"fmt"

	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
)

// Fetcher turns dataset records into deduplicated, ordered time series.
type Fetcher struct {
	repo dataset.Repository
}

// NewFetcher creates a new Fetcher over the given repository.
func NewFetcher(repo dataset.Repository) *Fetcher {
	return &Fetcher{repo: repo}
}

// Fetch returns the time series for the exact (city, country) pair.
// A city without records yields an empty series rather than an error;
// the analyzer decides whether that is acceptable.
//
// Rows sharing a date are merged into one point by averaging: AQI over
// the rows that report it, and each pollutant over the rows reporting
// that pollutant. Averaging keeps the merge deterministic and does not
// privilege row order in the source file.
func (f *Fetcher) Fetch(ctx context.Context, sel CitySelection) (TimeSeries, error) {
	records, err := f.repo.Records(ctx, sel.City, sel.Country)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("fetch records for %s, %s: %w", sel.City, sel.Country, err)
	}

	series := TimeSeries{
		City:    sel.City,
		Country: sel.Country,
		Points:  mergeByDate(records),
	}
	return series, nil
}

// FetchAll returns one series per selection, keyed by city label.
// Labels are the city name, disambiguated with the country when two
// selections share a city name.
func (f *Fetcher) FetchAll(ctx context.Context, sels []CitySelection) (map[string]TimeSeries, error) {
	out := make(map[string]TimeSeries, len(sels))
	labels := seriesLabels(sels)

	for i, sel := range sels {
		series, err := f.Fetch(ctx, sel)
		if err != nil {
			return nil, err
		}
		out[labels[i]] = series
	}
	return out, nil
}

// seriesLabels assigns a stable map key per selection.
func seriesLabels(sels []CitySelection) []string {
	cityCount := make(map[string]int, len(sels))
	for _, sel := range sels {
		cityCount[sel.City]++
	}

	labels := make([]string, len(sels))
	for i, sel := range sels {
		if cityCount[sel.City] > 1 {
			labels[i] = sel.City + ", " + sel.Country
		} else {
			labels[i] = sel.City
		}
	}
	return labels
}

// mergeByDate folds records sharing a date into single points. The
// input is already sorted ascending by date, so merging is a single
// pass over adjacent runs.
func mergeByDate(records []dataset.Record) []Point {
	if len(records) == 0 {
		return nil
	}

	points := make([]Point, 0, len(records))
	for start := 0; start < len(records); {
		end := start + 1
		for end < len(records) && records[end].Date.Equal(records[start].Date) {
			end++
		}
		points = append(points, mergeRun(records[start:end]))
		start = end
	}
	return points
}

// mergeRun averages a run of records that share a date.
func mergeRun(run []dataset.Record) Point {
	point := Point{Date: run[0].Date}

	var aqiSum float64
	var aqiCount int
	pollutantAggs := make(map[string]*pollutantAgg)

	for _, r := range run {
		if r.HasAQI {
			aqiSum += r.AQI
			aqiCount++
		}
		for name, value := range r.Pollutants {
			agg := pollutantAggs[name]
			if agg == nil {
				agg = &pollutantAgg{}
				pollutantAggs[name] = agg
			}
			agg.sum += value
			agg.count++
		}
	}

	if aqiCount > 0 {
		point.AQI = aqiSum / float64(aqiCount)
		point.HasAQI = true
	}
	if len(pollutantAggs) > 0 {
		point.Pollutants = make(map[string]float64, len(pollutantAggs))
		for name, agg := range pollutantAggs {
			point.Pollutants[name] = agg.sum / float64(agg.count)
		}
	}
	return point
}
