package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository serves the dataset from a pollution_records table.
// The table is loaded out of band and treated as read-only; this
// repository never writes.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL dataset repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Cities returns every distinct (city, country) pair.
func (r *PostgresRepository) Cities(ctx context.Context) ([]CityKey, error) {
	query := `
		SELECT DISTINCT city, country
		FROM pollution_records
		ORDER BY city, country
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []CityKey
	for rows.Next() {
		var key CityKey
		if err := rows.Scan(&key.City, &key.Country); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, key)
	}
	return cities, rows.Err()
}

// SearchCities returns pairs matching the query per the Repository contract.
func (r *PostgresRepository) SearchCities(ctx context.Context, query, country string) ([]CityKey, error) {
	pattern := "%" + query + "%"

	var sql string
	var args []interface{}
	if country != "" {
		sql = `
			SELECT DISTINCT city, country
			FROM pollution_records
			WHERE city ILIKE $1 AND lower(country) = lower($2)
			ORDER BY city, country
		`
		args = []interface{}{pattern, country}
	} else {
		sql = `
			SELECT DISTINCT city, country
			FROM pollution_records
			WHERE city ILIKE $1 OR country ILIKE $1
			ORDER BY city, country
		`
		args = []interface{}{pattern}
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search cities: %w", err)
	}
	defer rows.Close()

	var cities []CityKey
	for rows.Next() {
		var key CityKey
		if err := rows.Scan(&key.City, &key.Country); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, key)
	}
	return cities, rows.Err()
}

// Records returns the sorted records for the exact (city, country) pair.
func (r *PostgresRepository) Records(ctx context.Context, city, country string) ([]Record, error) {
	query := `
		SELECT city, country, date, aqi, pollutants
		FROM pollution_records
		WHERE lower(city) = lower($1) AND lower(country) = lower($2)
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, city, country)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var aqi *float64
		var pollutants []byte
		if err := rows.Scan(&record.City, &record.Country, &record.Date, &aqi, &pollutants); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if aqi != nil && *aqi >= 0 {
			record.AQI = *aqi
			record.HasAQI = true
		}
		if len(pollutants) > 0 {
			if err := json.Unmarshal(pollutants, &record.Pollutants); err != nil {
				return nil, fmt.Errorf("decode pollutants: %w", err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns summary information about the dataset.
func (r *PostgresRepository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(DISTINCT (city, country))
		FROM pollution_records
	`).Scan(&stats.Records, &stats.Cities)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT jsonb_object_keys(pollutants)
		FROM pollution_records
		ORDER BY 1
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("query pollutants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Stats{}, fmt.Errorf("scan pollutant: %w", err)
		}
		stats.Pollutants = append(stats.Pollutants, name)
	}
	return stats, rows.Err()
}
