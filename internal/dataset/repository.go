package dataset

import "context"

// Repository provides read-only access to the loaded dataset.
// Implementations must never mutate returned data after construction;
// concurrent readers are safe by design.
type Repository interface {
	// Cities returns every distinct (city, country) pair, sorted by
	// city then country.
	Cities(ctx context.Context) ([]CityKey, error)

	// SearchCities returns the pairs matching a case-insensitive
	// substring query on the city name. When country is non-empty the
	// results are further restricted to that country (case-insensitive
	// equality). When country is empty, pairs whose country name
	// contains the query are included as well. An empty result is not
	// an error; callers decide how to report it.
	SearchCities(ctx context.Context, query, country string) ([]CityKey, error)

	// Records returns every record for the exact (city, country) pair,
	// sorted by ascending date. A city with no records yields an empty
	// slice, not an error.
	Records(ctx context.Context, city, country string) ([]Record, error)

	// Stats returns summary information about the dataset.
	Stats(ctx context.Context) (Stats, error)
}
