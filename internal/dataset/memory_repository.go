package dataset

import (
	"context"
	"sort"
	"strings"
)

// MemoryRepository serves the dataset from an in-memory table built once
// at startup. All views are read-only after construction.
type MemoryRepository struct {
	cities     []CityKey
	byCity     map[string][]Record
	pollutants []string
	total      int
}

// NewMemoryRepository builds an in-memory repository over the loaded
// records. Records are grouped per (city, country) pair and each group
// is sorted by ascending date.
func NewMemoryRepository(records []Record, pollutants []string) *MemoryRepository {
	byCity := make(map[string][]Record)
	seen := make(map[string]CityKey)

	for _, r := range records {
		key := CityKey{City: r.City, Country: r.Country}
		k := key.Key()
		byCity[k] = append(byCity[k], r)
		if _, ok := seen[k]; !ok {
			seen[k] = key
		}
	}

	cities := make([]CityKey, 0, len(seen))
	for _, key := range seen {
		cities = append(cities, key)
	}
	sort.Slice(cities, func(i, j int) bool {
		if cities[i].City != cities[j].City {
			return cities[i].City < cities[j].City
		}
		return cities[i].Country < cities[j].Country
	})

	for _, group := range byCity {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})
	}

	return &MemoryRepository{
		cities:     cities,
		byCity:     byCity,
		pollutants: pollutants,
		total:      len(records),
	}
}

// Cities returns every distinct (city, country) pair.
func (r *MemoryRepository) Cities(_ context.Context) ([]CityKey, error) {
	out := make([]CityKey, len(r.cities))
	copy(out, r.cities)
	return out, nil
}

// SearchCities returns pairs matching the query per the Repository contract.
func (r *MemoryRepository) SearchCities(_ context.Context, query, country string) ([]CityKey, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(country))

	var out []CityKey
	for _, key := range r.cities {
		if c != "" && strings.ToLower(key.Country) != c {
			continue
		}
		if q == "" {
			out = append(out, key)
			continue
		}
		cityMatch := strings.Contains(strings.ToLower(key.City), q)
		countryMatch := c == "" && strings.Contains(strings.ToLower(key.Country), q)
		if cityMatch || countryMatch {
			out = append(out, key)
		}
	}
	return out, nil
}

// Records returns the sorted records for the exact (city, country) pair.
func (r *MemoryRepository) Records(_ context.Context, city, country string) ([]Record, error) {
	key := CityKey{City: city, Country: country}
	group := r.byCity[key.Key()]
	out := make([]Record, len(group))
	copy(out, group)
	return out, nil
}

// Stats returns summary information about the dataset.
func (r *MemoryRepository) Stats(_ context.Context) (Stats, error) {
	pollutants := make([]string, len(r.pollutants))
	copy(pollutants, r.pollutants)
	return Stats{
		Records:    r.total,
		Cities:     len(r.cities),
		Pollutants: pollutants,
	}, nil
}
