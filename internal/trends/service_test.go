package trends_test

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

func newTestService() *trends.Service {
	records := []dataset.Record{
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-01"), AQI: 50, HasAQI: true,
			Pollutants: map[string]float64{"pm2.5": 30, "no2": 12}},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-02"), AQI: 55, HasAQI: true,
			Pollutants: map[string]float64{"pm2.5": 33, "no2": 11}},
		{City: "Lagos", Country: "Nigeria", Date: day("2020-01-03"), AQI: 60, HasAQI: true,
			Pollutants: map[string]float64{"pm2.5": 35, "no2": 13}},
		{City: "Oslo", Country: "Norway", Date: day("2020-01-01"), AQI: 20, HasAQI: true},
	}
	return trends.NewService(trends.ServiceConfig{
		Repository: dataset.NewMemoryRepository(records, []string{"pm2.5", "no2"}),
		Logger:     zerolog.New(io.Discard),
		Rand:       rand.New(rand.NewSource(1)),
	})
}

func TestService_SelectFetchAnalyze(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	selection, err := service.SelectCities(ctx, trends.SelectionQuery{Query: "lagos"})
	require.NoError(t, err)
	require.Len(t, selection.Cities, 1)

	series, err := service.FetchRecords(ctx, selection.Cities)
	require.NoError(t, err)
	require.Contains(t, series, "Lagos")
	assert.Equal(t, 3, series["Lagos"].Len())

	summaries, err := service.AnalyzeTrends(series)
	require.NoError(t, err)

	summary := summaries["Lagos"]
	assert.InDelta(t, 55.0, summary.AverageAQI, 1e-9)
	assert.Equal(t, "pm2.5", summary.PrimaryPollutant)
	assert.Equal(t, trends.TrendWorsening, summary.TrendDirection)
	assert.InDelta(t, 5.0, summary.TrendStrength, 1e-9)
	assert.Equal(t, 3, summary.SampleCount)
}

func TestService_AnalyzeTrends_ErrorNamesFailingCity(t *testing.T) {
	service := newTestService()

	series := map[string]trends.TimeSeries{
		"Lagos": {
			City: "Lagos",
			Points: []trends.Point{
				{Date: day("2020-01-01"), AQI: 50, HasAQI: true},
				{Date: day("2020-01-02"), AQI: 55, HasAQI: true},
			},
		},
		"Nowhere": {City: "Nowhere"},
	}

	_, err := service.AnalyzeTrends(series)

	require.ErrorIs(t, err, trends.ErrInsufficientData)
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestService_AnalyzeSeries(t *testing.T) {
	service := newTestService()

	summary, err := service.AnalyzeSeries(trends.TimeSeries{
		City: "Oslo",
		Points: []trends.Point{
			{Date: day("2020-01-01"), AQI: 30, HasAQI: true},
			{Date: day("2020-01-02"), AQI: 20, HasAQI: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, trends.TrendImproving, summary.TrendDirection)
	assert.InDelta(t, -10.0, summary.TrendStrength, 1e-9)
}

func TestService_FetchRecords_EmptySeriesForUnknownCity(t *testing.T) {
	service := newTestService()

	series, err := service.FetchRecords(context.Background(), []trends.CitySelection{
		{City: "Atlantis", Country: "Nowhere"},
	})
	require.NoError(t, err)

	require.Contains(t, series, "Atlantis")
	assert.Equal(t, 0, series["Atlantis"].Len())
}
