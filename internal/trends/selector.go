package trends

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
)

// SelectionQuery describes a city selection request.
type SelectionQuery struct {
	// Query is a free-text city name fragment. Matching is
	// case-insensitive substring on the city name; with no Country it
	// also matches country names, mirroring the dataset's mixed usage.
	Query string

	// Country restricts matches to one country (case-insensitive).
	Country string

	// RandomCount is the number of random cities to draw when Query
	// and Country are both empty (default 1). For text queries it caps
	// the number of returned matches.
	RandomCount int
}

// SelectionResult carries the resolved cities plus cap metadata so
// callers can see when a random request exceeded the dataset.
type SelectionResult struct {
	Cities []CitySelection

	// RequestedCount is the count the caller asked for.
	RequestedCount int

	// ReturnedCount is the count actually returned after capping.
	ReturnedCount int
}

// SelectorConfig holds configuration for the city selector.
type SelectorConfig struct {
	// Repository is the dataset to resolve against.
	Repository dataset.Repository

	// Logger for selection operations.
	Logger zerolog.Logger

	// Rand is the randomness source for random selection. Defaults to
	// a time-seeded source; tests inject a fixed seed.
	Rand *rand.Rand
}

// Selector resolves free-text queries and random requests to concrete
// (city, country) pairs present in the dataset.
type Selector struct {
	repo   dataset.Repository
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a new Selector.
func NewSelector(cfg SelectorConfig) *Selector {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		rng:    rng,
	}
}

// Select resolves a query to dataset cities. A query that matches
// nothing fails with ErrNoMatchingCities naming the query terms; it is
// never silently empty.
func (s *Selector) Select(ctx context.Context, q SelectionQuery) (SelectionResult, error) {
	if strings.TrimSpace(q.Query) == "" && strings.TrimSpace(q.Country) == "" {
		return s.selectRandom(ctx, q.RandomCount)
	}
	return s.selectByQuery(ctx, q)
}

// selectByQuery performs substring matching against the dataset.
func (s *Selector) selectByQuery(ctx context.Context, q SelectionQuery) (SelectionResult, error) {
	query := strings.TrimSpace(q.Query)
	country := strings.TrimSpace(q.Country)

	keys, err := s.repo.SearchCities(ctx, query, country)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("search cities: %w", err)
	}
	if len(keys) == 0 {
		if country != "" {
			return SelectionResult{}, fmt.Errorf("%w for query %q in country %q", ErrNoMatchingCities, query, country)
		}
		return SelectionResult{}, fmt.Errorf("%w for query %q", ErrNoMatchingCities, query)
	}

	requested := len(keys)
	if q.RandomCount > 0 {
		requested = q.RandomCount
		if len(keys) > q.RandomCount {
			keys = keys[:q.RandomCount]
		}
	}

	return SelectionResult{
		Cities:         toSelections(keys),
		RequestedCount: requested,
		ReturnedCount:  len(keys),
	}, nil
}

// selectRandom draws cities without replacement from the whole dataset.
// A request for more cities than exist is capped, not rejected.
func (s *Selector) selectRandom(ctx context.Context, count int) (SelectionResult, error) {
	if count <= 0 {
		count = 1
	}

	keys, err := s.repo.Cities(ctx)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("list cities: %w", err)
	}
	if len(keys) == 0 {
		return SelectionResult{}, fmt.Errorf("%w: dataset has no cities", ErrNoMatchingCities)
	}

	requested := count
	if count > len(keys) {
		s.logger.Warn().
			Int("requested", count).
			Int("available", len(keys)).
			Msg("random selection capped at available cities")
		count = len(keys)
	}

	shuffled := make([]dataset.CityKey, len(keys))
	copy(shuffled, keys)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return SelectionResult{
		Cities:         toSelections(shuffled[:count]),
		RequestedCount: requested,
		ReturnedCount:  count,
	}, nil
}

func toSelections(keys []dataset.CityKey) []CitySelection {
	out := make([]CitySelection, len(keys))
	for i, key := range keys {
		out[i] = CitySelection{City: key.City, Country: key.Country}
	}
	return out
}
