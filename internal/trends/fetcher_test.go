package trends_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

func TestFetcher_Fetch_SortedAndComplete(t *testing.T) {
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-03"), AQI: 60, HasAQI: true},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 50, HasAQI: true},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-02"), AQI: 55, HasAQI: true},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.Fetch(context.Background(), trends.CitySelection{City: "Lagos", Country: "Nigeria"})
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, day("2020-01-01"), series.Points[0].Date)
	assert.Equal(t, day("2020-01-02"), series.Points[1].Date)
	assert.Equal(t, day("2020-01-03"), series.Points[2].Date)
}

func TestFetcher_Fetch_DuplicateDatesAveraged(t *testing.T) {
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 40, HasAQI: true,
			Pollutants: map[string]float64{"pm2.5": 10}},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 60, HasAQI: true,
			Pollutants: map[string]float64{"pm2.5": 30, "no2": 8}},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-02"), AQI: 70, HasAQI: true},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.Fetch(context.Background(), trends.CitySelection{City: "Lagos", Country: "Nigeria"})
	require.NoError(t, err)

	require.Equal(t, 2, series.Len())

	merged := series.Points[0]
	assert.True(t, merged.HasAQI)
	assert.InDelta(t, 50.0, merged.AQI, 1e-9)
	assert.InDelta(t, 20.0, merged.Pollutants["pm2.5"], 1e-9)
	// no2 appears in one row only, so its mean is that row's value.
	assert.InDelta(t, 8.0, merged.Pollutants["no2"], 1e-9)
}

func TestFetcher_Fetch_DuplicateWithMissingAQI(t *testing.T) {
	// One of two same-day rows lacks AQI; the merge averages over the
	// rows that report it instead of diluting with zeros.
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 80, HasAQI: true},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"),
			Pollutants: map[string]float64{"so2": 3}},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.Fetch(context.Background(), trends.CitySelection{City: "Lagos", Country: "Nigeria"})
	require.NoError(t, err)

	require.Equal(t, 1, series.Len())
	assert.True(t, series.Points[0].HasAQI)
	assert.InDelta(t, 80.0, series.Points[0].AQI, 1e-9)
	assert.InDelta(t, 3.0, series.Points[0].Pollutants["so2"], 1e-9)
}

func TestFetcher_Fetch_UnknownCityYieldsEmptySeries(t *testing.T) {
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 50, HasAQI: true},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.Fetch(context.Background(), trends.CitySelection{City: "Atlantis", Country: "Nowhere"})
	require.NoError(t, err)

	assert.Equal(t, "Atlantis", series.City)
	assert.Equal(t, 0, series.Len())
}

func TestFetcher_FetchAll_LabelsByCity(t *testing.T) {
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 50, HasAQI: true},
		{City: "Oslo", Country: "Norway", Date: day("2020-01-01"), AQI: 20, HasAQI: true},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.FetchAll(context.Background(), []trends.CitySelection{
		{City: "Lagos", Country: "Nigeria"},
		{City: "Oslo", Country: "Norway"},
	})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Contains(t, series, "Lagos")
	assert.Contains(t, series, "Oslo")
}

func TestFetcher_FetchAll_DisambiguatesSharedCityNames(t *testing.T) {
	repo := dataset.NewMemoryRepository([]dataset.Record{
		{City: "Springfield", Country: "United States of America", Date: day("2020-01-01"), AQI: 50, HasAQI: true},
		{City: "Springfield", Country: "Canada", Date: day("2020-01-01"), AQI: 30, HasAQI: true},
	}, nil)
	fetcher := trends.NewFetcher(repo)

	series, err := fetcher.FetchAll(context.Background(), []trends.CitySelection{
		{City: "Springfield", Country: "United States of America"},
		{City: "Springfield", Country: "Canada"},
	})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Contains(t, series, "Springfield, United States of America")
	assert.Contains(t, series, "Springfield, Canada")
}
