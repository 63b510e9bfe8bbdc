package trends

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
)

// ServiceConfig holds configuration for the trends service.
type ServiceConfig struct {
	// Repository is the loaded dataset.
	Repository dataset.Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// SlopeThreshold overrides the default trend classification
	// threshold when positive.
	SlopeThreshold float64

	// Rand seeds random city selection; nil uses a time-based seed.
	Rand *rand.Rand
}

// Service exposes the four analytical operations over one read-only
// dataset. All methods are pure request/response: no background work,
// no shared mutable state, safe for concurrent calls.
type Service struct {
	selector *Selector
	fetcher  *Fetcher
	analyzer *Analyzer
	logger   zerolog.Logger
}

// NewService creates a new trends service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		selector: NewSelector(SelectorConfig{
			Repository: cfg.Repository,
			Logger:     cfg.Logger,
			Rand:       cfg.Rand,
		}),
		fetcher:  NewFetcher(cfg.Repository),
		analyzer: NewAnalyzer(AnalyzerConfig{SlopeThreshold: cfg.SlopeThreshold}),
		logger:   cfg.Logger,
	}
}

// SelectCities resolves a selection query to dataset cities.
func (s *Service) SelectCities(ctx context.Context, q SelectionQuery) (SelectionResult, error) {
	result, err := s.selector.Select(ctx, q)
	if err != nil {
		return SelectionResult{}, err
	}

	s.logger.Debug().
		Str("query", q.Query).
		Str("country", q.Country).
		Int("returned", result.ReturnedCount).
		Msg("cities selected")
	return result, nil
}

// FetchRecords returns one deduplicated, date-ordered series per
// selection, keyed by city label.
func (s *Service) FetchRecords(ctx context.Context, sels []CitySelection) (map[string]TimeSeries, error) {
	return s.fetcher.FetchAll(ctx, sels)
}

// AnalyzeTrends computes a trend summary per series. Cities are
// processed in sorted label order; the first failing series aborts the
// call with an error naming the city.
func (s *Service) AnalyzeTrends(series map[string]TimeSeries) (map[string]TrendSummary, error) {
	labels := make([]string, 0, len(series))
	for label := range series {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	summaries := make(map[string]TrendSummary, len(series))
	for _, label := range labels {
		summary, err := s.analyzer.Analyze(series[label])
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", label, err)
		}
		summaries[label] = summary
	}
	return summaries, nil
}

// AnalyzeSeries computes the trend summary for a single series.
func (s *Service) AnalyzeSeries(series TimeSeries) (TrendSummary, error) {
	return s.analyzer.Analyze(series)
}
