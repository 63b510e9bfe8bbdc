package trends

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSlopeThreshold is the minimum absolute regression slope, in
// AQI units per day, required to classify a trend as non-stable.
const DefaultSlopeThreshold = 0.10

// AnalyzerConfig holds configuration for the trend analyzer.
type AnalyzerConfig struct {
	// SlopeThreshold overrides DefaultSlopeThreshold when positive.
	SlopeThreshold float64
}

// Analyzer computes trend summaries from time series. It is stateless
// and safe for concurrent use.
type Analyzer struct {
	slopeThreshold float64
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	threshold := cfg.SlopeThreshold
	if threshold <= 0 {
		threshold = DefaultSlopeThreshold
	}
	return &Analyzer{slopeThreshold: threshold}
}

// Analyze computes the trend summary for a series. It is deterministic:
// the same series always yields the identical summary.
//
// The average and the regression run over points carrying an AQI value;
// an empty series, or one with no AQI values at all, returns
// ErrInsufficientData. A series with a single AQI value is the
// documented degenerate case: direction "stable", strength 0.
func (a *Analyzer) Analyze(series TimeSeries) (TrendSummary, error) {
	if len(series.Points) == 0 {
		return TrendSummary{}, fmt.Errorf("%w: series for %q is empty", ErrInsufficientData, series.City)
	}

	pollutantAggs := make(map[string]*pollutantAgg)

	// Regression accumulators. x is the day offset from the first
	// AQI-bearing observation, y is AQI.
	var (
		n, sumX, sumY, sumXY, sumX2 float64
		origin                      *Point
	)

	for i := range series.Points {
		p := &series.Points[i]

		for name, value := range p.Pollutants {
			agg := pollutantAggs[name]
			if agg == nil {
				agg = &pollutantAgg{}
				pollutantAggs[name] = agg
			}
			agg.sum += value
			agg.count++
		}

		if !p.HasAQI {
			continue
		}
		if origin == nil {
			origin = p
		}
		x := p.Date.Sub(origin.Date).Hours() / 24
		n++
		sumX += x
		sumY += p.AQI
		sumXY += x * p.AQI
		sumX2 += x * x
	}

	if n == 0 {
		return TrendSummary{}, fmt.Errorf("%w: series for %q has no AQI values", ErrInsufficientData, series.City)
	}

	slope := 0.0
	if n >= 2 {
		// Closed-form least squares. The denominator can only vanish
		// when all x values coincide, which deduplicated dates rule
		// out, but guard anyway.
		denominator := n*sumX2 - sumX*sumX
		if math.Abs(denominator) > 1e-10 {
			slope = (n*sumXY - sumX*sumY) / denominator
		}
	}

	start, end, _ := series.DateRange()

	return TrendSummary{
		City:             series.City,
		Country:          series.Country,
		AverageAQI:       sumY / n,
		PrimaryPollutant: primaryPollutant(pollutantAggs),
		TrendDirection:   a.classify(slope, int(n)),
		TrendStrength:    slope,
		SampleCount:      len(series.Points),
		DateRange:        DateRange{Start: start, End: end},
	}, nil
}

// classify maps a slope to a trend direction. Fewer than two AQI
// observations cannot support a slope and always read as stable.
func (a *Analyzer) classify(slope float64, aqiCount int) TrendDirection {
	if aqiCount < 2 {
		return TrendStable
	}
	switch {
	case slope > a.slopeThreshold:
		return TrendWorsening
	case slope < -a.slopeThreshold:
		return TrendImproving
	default:
		return TrendStable
	}
}

// pollutantAgg accumulates the mean concentration of one pollutant.
type pollutantAgg struct {
	sum   float64
	count int
}

// primaryPollutant picks the pollutant with the highest mean
// concentration. Ties break to the alphabetically first name so the
// result is reproducible across runs.
func primaryPollutant(aggs map[string]*pollutantAgg) string {
	if len(aggs) == 0 {
		return UnknownPollutant
	}

	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	bestMean := aggs[best].sum / float64(aggs[best].count)
	for _, name := range names[1:] {
		mean := aggs[name].sum / float64(aggs[name].count)
		if mean > bestMean {
			best = name
			bestMean = mean
		}
	}
	return best
}
