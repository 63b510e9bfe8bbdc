package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pollutiontrends/pollutiontrends/internal/api/models"
	"github.com/pollutiontrends/pollutiontrends/internal/api/response"
	"github.com/pollutiontrends/pollutiontrends/internal/plot"
	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

// TrendsHandler handles the four analytical tool endpoints.
type TrendsHandler struct {
	service  *trends.Service
	renderer *plot.Renderer
}

// NewTrendsHandler creates a new TrendsHandler.
func NewTrendsHandler(service *trends.Service, renderer *plot.Renderer) *TrendsHandler {
	return &TrendsHandler{
		service:  service,
		renderer: renderer,
	}
}

// SelectCities handles POST /v1/cities:select.
func (h *TrendsHandler) SelectCities(w http.ResponseWriter, r *http.Request) {
	var req models.SelectCitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.RandomCount < 0 {
		response.BadRequest(w, r, "randomCount must not be negative", []models.FieldError{
			{Field: "randomCount", Message: "must be zero or positive", Code: "out_of_range"},
		})
		return
	}

	result, err := h.service.SelectCities(r.Context(), trends.SelectionQuery{
		Query:       req.Query,
		Country:     req.Country,
		RandomCount: req.RandomCount,
	})
	if err != nil {
		if errors.Is(err, trends.ErrNoMatchingCities) {
			response.NotFound(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "city selection failed")
		return
	}

	resp := models.SelectCitiesResponse{
		Cities: make([]models.CityRef, len(result.Cities)),
		Meta: models.SelectionMeta{
			RequestedCount: result.RequestedCount,
			ReturnedCount:  result.ReturnedCount,
		},
	}
	for i, c := range result.Cities {
		resp.Cities[i] = models.CityRef{City: c.City, Country: c.Country}
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// FetchRecords handles POST /v1/records:fetch.
func (h *TrendsHandler) FetchRecords(w http.ResponseWriter, r *http.Request) {
	var req models.FetchRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Cities) == 0 {
		response.BadRequest(w, r, "at least one city is required", []models.FieldError{
			{Field: "cities", Message: "must not be empty", Code: "required"},
		})
		return
	}

	selections := make([]trends.CitySelection, len(req.Cities))
	for i, c := range req.Cities {
		selections[i] = trends.CitySelection{City: c.City, Country: c.Country}
	}

	series, err := h.service.FetchRecords(r.Context(), selections)
	if err != nil {
		response.InternalError(w, r, "record fetch failed")
		return
	}

	resp := models.FetchRecordsResponse{Series: make(map[string]models.Series, len(series))}
	for label, ts := range series {
		resp.Series[label] = toWireSeries(ts)
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// AnalyzeTrends handles POST /v1/trends:analyze.
func (h *TrendsHandler) AnalyzeTrends(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeTrendsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Series) == 0 {
		response.BadRequest(w, r, "at least one series is required", []models.FieldError{
			{Field: "series", Message: "must not be empty", Code: "required"},
		})
		return
	}

	summaries, err := h.service.AnalyzeTrends(toDomainSeries(req.Series))
	if err != nil {
		if errors.Is(err, trends.ErrInsufficientData) {
			response.InsufficientData(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "trend analysis failed")
		return
	}

	resp := models.AnalyzeTrendsResponse{Summaries: make(map[string]models.TrendSummary, len(summaries))}
	for label, s := range summaries {
		resp.Summaries[label] = models.TrendSummary{
			City:             s.City,
			Country:          s.Country,
			AverageAQI:       s.AverageAQI,
			PrimaryPollutant: s.PrimaryPollutant,
			TrendDirection:   string(s.TrendDirection),
			TrendStrength:    s.TrendStrength,
			SampleCount:      s.SampleCount,
			DateRange: models.DateRange{
				Start: models.Timestamp(s.DateRange.Start),
				End:   models.Timestamp(s.DateRange.End),
			},
		}
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// PlotTrends handles POST /v1/trends:plot.
func (h *TrendsHandler) PlotTrends(w http.ResponseWriter, r *http.Request) {
	var req models.PlotTrendsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Series) == 0 {
		response.BadRequest(w, r, "at least one series is required", []models.FieldError{
			{Field: "series", Message: "must not be empty", Code: "required"},
		})
		return
	}

	path, err := h.renderer.Render(toDomainSeries(req.Series), req.OutputPath)
	if err != nil {
		if errors.Is(err, plot.ErrRenderFailed) {
			response.RenderFailed(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "plot rendering failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.PlotTrendsResponse{Path: path})
}

// toWireSeries converts a domain series to its wire form.
func toWireSeries(ts trends.TimeSeries) models.Series {
	out := models.Series{
		City:    ts.City,
		Country: ts.Country,
		Points:  make([]models.SeriesPoint, len(ts.Points)),
	}
	for i, p := range ts.Points {
		point := models.SeriesPoint{
			Date:       models.Timestamp(p.Date),
			Pollutants: p.Pollutants,
		}
		if p.HasAQI {
			aqi := p.AQI
			point.AQI = &aqi
		}
		out.Points[i] = point
	}
	return out
}

// toDomainSeries converts wire series to their domain form.
func toDomainSeries(in map[string]models.Series) map[string]trends.TimeSeries {
	out := make(map[string]trends.TimeSeries, len(in))
	for label, s := range in {
		ts := trends.TimeSeries{
			City:    s.City,
			Country: s.Country,
			Points:  make([]trends.Point, len(s.Points)),
		}
		for i, p := range s.Points {
			point := trends.Point{
				Date:       p.Date.Time(),
				Pollutants: p.Pollutants,
			}
			if p.AQI != nil {
				point.AQI = *p.AQI
				point.HasAQI = true
			}
			ts.Points[i] = point
		}
		out[label] = ts
	}
	return out
}
