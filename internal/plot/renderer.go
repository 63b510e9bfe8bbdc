// Package plot renders time series charts to PNG artifacts.
package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

// ErrRenderFailed is returned when a chart artifact cannot be produced,
// including when no series carries any data points.
var ErrRenderFailed = errors.New("failed to render chart")

// RendererConfig holds configuration for the chart renderer.
type RendererConfig struct {
	// ArtifactDir is where charts are written when the caller gives no
	// explicit path. Defaults to <user cache dir>/pollution-trends/plots.
	ArtifactDir string

	// Width and Height of the rendered image in pixels
	// (default: 1280x720).
	Width  int
	Height int

	// Logger for render operations.
	Logger zerolog.Logger
}

// Renderer draws AQI-vs-time charts, one line per city.
type Renderer struct {
	artifactDir string
	width       int
	height      int
	logger      zerolog.Logger
}

// NewRenderer creates a new Renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	artifactDir := cfg.ArtifactDir
	if artifactDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve artifact dir: %w", err)
		}
		artifactDir = filepath.Join(base, "pollution-trends", "plots")
	}

	width := cfg.Width
	if width <= 0 {
		width = 1280
	}
	height := cfg.Height
	if height <= 0 {
		height = 720
	}

	return &Renderer{
		artifactDir: artifactDir,
		width:       width,
		height:      height,
		logger:      cfg.Logger,
	}, nil
}

// Render draws one line per series and persists the chart as a PNG,
// returning the resolved file path. Empty series are skipped with a log
// line; a single-point series is padded so go-chart can draw it as a
// marker. Re-rendering to the same path overwrites the prior artifact.
func (r *Renderer) Render(series map[string]trends.TimeSeries, outputPath string) (string, error) {
	labels := make([]string, 0, len(series))
	for label := range series {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var chartSeries []chart.Series
	for _, label := range labels {
		ts := series[label]
		s, ok := r.buildSeries(label, len(chartSeries), ts)
		if !ok {
			r.logger.Warn().
				Str("city", label).
				Msg("skipping series without data points")
			continue
		}
		chartSeries = append(chartSeries, s)
	}

	if len(chartSeries) == 0 {
		return "", fmt.Errorf("%w: no series with data points", ErrRenderFailed)
	}

	path := outputPath
	if path == "" {
		path = filepath.Join(r.artifactDir, artifactFilename(labels))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: create artifact dir: %v", ErrRenderFailed, err)
	}

	graph := chart.Chart{
		Title:  "AQI over time",
		Width:  r.width,
		Height: r.height,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "AQI",
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create artifact: %v", ErrRenderFailed, err)
	}

	renderErr := graph.Render(chart.PNG, f)
	if closeErr := f.Close(); renderErr == nil {
		renderErr = closeErr
	}
	if renderErr != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, renderErr)
	}

	r.logger.Info().
		Str("path", path).
		Int("series", len(chartSeries)).
		Msg("chart rendered")

	return path, nil
}

// buildSeries converts a time series into a drawable chart series.
// Only AQI-bearing points are drawn. ok is false when nothing remains.
func (r *Renderer) buildSeries(label string, index int, ts trends.TimeSeries) (chart.Series, bool) {
	var xs []time.Time
	var ys []float64
	for _, p := range ts.Points {
		if !p.HasAQI {
			continue
		}
		xs = append(xs, p.Date)
		ys = append(ys, p.AQI)
	}
	if len(xs) == 0 {
		return nil, false
	}

	// go-chart needs at least two X values; pad a lone point with a
	// one-day offset so it renders as a flat marker.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	return chart.TimeSeries{
		Name:    label,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: chart.GetDefaultColor(index),
			DotColor:    chart.GetDefaultColor(index),
			DotWidth:    2,
		},
	}, true
}

// artifactFilename derives a collision-free artifact name from the
// requested cities and the render time.
func artifactFilename(labels []string) string {
	slugSource := labels
	if len(slugSource) > 3 {
		slugSource = slugSource[:3]
	}

	var b strings.Builder
	for i, label := range slugSource {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(slugify(label))
	}

	timestamp := time.Now().UTC().Format("20060102T150405")
	short := uuid.New().String()[:8]
	return fmt.Sprintf("trends_%s_%s_%s.png", b.String(), timestamp, short)
}

// slugify lowercases a label and replaces non-alphanumeric runs with a
// single dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
