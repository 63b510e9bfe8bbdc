package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Required dataset columns. Header matching is case-insensitive.
const (
	columnCity    = "city"
	columnCountry = "country"
	columnDate    = "date"
	columnAQI     = "aqi"
)

// dateLayout is the day-resolution date format used by the dataset.
const dateLayout = "2006-01-02"

// ignoredColumns are metadata columns that must not be treated as
// pollutant concentrations.
var ignoredColumns = map[string]bool{
	"aqi category": true,
	"lat":          true,
	"lng":          true,
	"latitude":     true,
	"longitude":    true,
}

// LoadCSV reads and validates the dataset from a CSV file on disk.
func LoadCSV(path string) ([]Record, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, pollutants, err := ParseCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return records, pollutants, nil
}

// ParseCSV reads and validates the dataset from a CSV stream.
// The schema is validated once here, not per call: the header must
// contain city, country, date and AQI columns; every remaining column
// (except known metadata columns) is treated as a pollutant
// concentration. Rows with an unparseable date are rejected. Empty or
// non-numeric AQI and pollutant cells are treated as missing readings.
func ParseCSV(r io.Reader) ([]Record, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot read header: %v", ErrInvalidSchema, err)
	}

	cols, pollutantCols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", line, err)
		}

		record, err := parseRow(row, cols, pollutantCols)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, nil, ErrEmptyDataset
	}

	pollutants := make([]string, 0, len(pollutantCols))
	for _, pc := range pollutantCols {
		pollutants = append(pollutants, pc.name)
	}
	return records, pollutants, nil
}

// columnIndexes holds the positions of the required columns.
type columnIndexes struct {
	city    int
	country int
	date    int
	aqi     int
}

// pollutantColumn maps a pollutant name to its column position.
type pollutantColumn struct {
	name  string
	index int
}

func resolveColumns(header []string) (columnIndexes, []pollutantColumn, error) {
	cols := columnIndexes{city: -1, country: -1, date: -1, aqi: -1}
	var pollutants []pollutantColumn

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		switch strings.ToLower(name) {
		case columnCity:
			cols.city = i
		case columnCountry:
			cols.country = i
		case columnDate:
			cols.date = i
		case columnAQI:
			cols.aqi = i
		default:
			if ignoredColumns[strings.ToLower(name)] || name == "" {
				continue
			}
			pollutants = append(pollutants, pollutantColumn{name: name, index: i})
		}
	}

	var missing []string
	if cols.city < 0 {
		missing = append(missing, "city")
	}
	if cols.country < 0 {
		missing = append(missing, "country")
	}
	if cols.date < 0 {
		missing = append(missing, "date")
	}
	if cols.aqi < 0 {
		missing = append(missing, "AQI")
	}
	if len(missing) > 0 {
		return cols, nil, fmt.Errorf("%w: missing columns %s", ErrInvalidSchema, strings.Join(missing, ", "))
	}

	return cols, pollutants, nil
}

func parseRow(row []string, cols columnIndexes, pollutantCols []pollutantColumn) (Record, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	city := cell(cols.city)
	country := cell(cols.country)
	if city == "" || country == "" {
		return Record{}, fmt.Errorf("missing city or country")
	}

	date, err := time.ParseInLocation(dateLayout, cell(cols.date), time.UTC)
	if err != nil {
		return Record{}, fmt.Errorf("invalid date %q: %w", cell(cols.date), err)
	}

	record := Record{
		City:    city,
		Country: country,
		Date:    date,
	}

	if raw := cell(cols.aqi); raw != "" {
		aqi, err := strconv.ParseFloat(raw, 64)
		if err == nil && aqi >= 0 {
			record.AQI = aqi
			record.HasAQI = true
		}
	}

	for _, pc := range pollutantCols {
		raw := cell(pc.index)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if record.Pollutants == nil {
			record.Pollutants = make(map[string]float64, len(pollutantCols))
		}
		record.Pollutants[pc.name] = value
	}

	return record, nil
}
