package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/imagegen"
	"github.com/lox/airguard/internal/ingest"
	"github.com/lox/airguard/internal/metrics"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/report"
)

// summarize runs the engine over the stored dataset, optionally restricted
// to the selected cities.
func (s *Server) summarize(ctx context.Context, cities []string) (airquality.Summary, []models.Reading, error) {
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return airquality.Summary{}, nil, err
	}
	if len(cities) > 0 {
		readings = airquality.FilterCities(readings, cities)
	}
	metrics.AggregationRuns.Inc()
	summary, err := s.engine.Summarize(readings)
	if err != nil {
		return airquality.Summary{}, nil, err
	}
	return summary, readings, nil
}

// writeEngineError maps engine and store failures onto the JSON envelope.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, airquality.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("aggregate readings", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.ListReadings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleImportReadings(w http.ResponseWriter, r *http.Request) {
	n, err := ingest.ImportReadings(r.Context(), s.store, r.Body, "api", s.logger)
	s.writeImportResult(w, http.StatusCreated, n, err)
}

// handleReplaceReadings swaps the whole dataset for the request body.
func (s *Server) handleReplaceReadings(w http.ResponseWriter, r *http.Request) {
	n, err := ingest.ReplaceReadings(r.Context(), s.store, r.Body, "api", s.logger)
	s.writeImportResult(w, http.StatusOK, n, err)
}

func (s *Server) writeImportResult(w http.ResponseWriter, status, n int, err error) {
	switch {
	case errors.Is(err, airquality.ErrValidation), errors.Is(err, airquality.ErrMalformed):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("import readings", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.cardCache.Invalidate()
	writeJSON(w, status, map[string]int{"imported": n})
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.summarize(r.Context(), r.URL.Query()["city"])
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Aggregates)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	field := airquality.FieldPM25
	if raw := q.Get("field"); raw != "" {
		f, err := airquality.ParseField(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		field = f
	}

	ascending := true
	switch q.Get("order") {
	case "", "asc":
	case "desc":
		ascending = false
	default:
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	summary, _, err := s.summarize(r.Context(), q["city"])
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, airquality.RankByPollutant(summary.Aggregates, field, ascending))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.summarize(r.Context(), r.URL.Query()["city"])
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.ListReadings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cities := r.URL.Query()["city"]; len(cities) > 0 {
		readings = airquality.FilterCities(readings, cities)
	}
	writeJSON(w, http.StatusOK, airquality.SeriesByCity(readings))
}

// ClassifyResult is the /api/classify response.
type ClassifyResult struct {
	Value      float64             `json:"value"`
	Scale      string              `json:"scale"`
	Category   airquality.Category `json:"category"`
	Label      string              `json:"label"`
	CSSClass   string              `json:"cssClass"`
	AlertColor string              `json:"alertColor"`
	Severity   int                 `json:"severity"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value, err := strconv.ParseFloat(q.Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}

	scale := q.Get("scale")
	if scale == "" {
		scale = "gauge"
	}
	thresholds, ok := thresholdsFor(scale)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown scale: "+scale)
		return
	}

	c := airquality.Classify(value, thresholds)
	writeJSON(w, http.StatusOK, ClassifyResult{
		Value:      value,
		Scale:      scale,
		Category:   c,
		Label:      c.Label(),
		CSSClass:   c.CSSClass(),
		AlertColor: c.AlertColor(),
		Severity:   c.Severity(),
	})
}

func thresholdsFor(scale string) (airquality.Thresholds, bool) {
	switch scale {
	case "gauge":
		return airquality.GaugeThresholds, true
	case "pm25", "alert":
		return airquality.PM25AlertThresholds, true
	}
	f, err := airquality.ParseField(scale)
	if err != nil {
		return airquality.Thresholds{}, false
	}
	t, ok := airquality.PollutantThresholds[f]
	return t, ok
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.summarize(r.Context(), r.URL.Query()["city"])
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	out, err := report.Build(summary, time.Now())
	if err != nil {
		s.logger.Error("build report", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="airguard-report.xlsx"`)
	w.Write(out)
}

func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.cardCache.Get(); ok {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(data)
		return
	}

	summary, _, err := s.summarize(r.Context(), nil)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	card := imagegen.SummaryCardData{CityCount: summary.CityCount, GeneratedAt: time.Now()}
	if summary.Best != nil && summary.Worst != nil {
		card.Best = summary.Best.City
		card.BestIndex = summary.Best.QualityIndex
		card.Worst = summary.Worst.City
		card.WorstIndex = summary.Worst.QualityIndex
		card.AlertColor = airquality.Classify(summary.Worst.AvgPM25, airquality.PM25AlertThresholds).AlertColor()
	}

	png, err := imagegen.GenerateSummaryCard(card)
	if err != nil {
		s.logger.Error("og-image: generate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate image")
		return
	}
	s.cardCache.Set(png)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(png)
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status    string `json:"status"`
	Readings  int    `json:"readings"`
	Migration int    `json:"migration"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "error", Error: err.Error()})
		return
	}

	health := HealthStatus{Status: "ok"}
	var err error
	if health.Readings, err = s.store.CountReadings(r.Context()); err != nil {
		health.Status = "degraded"
		health.Error = err.Error()
	}
	if health.Migration, err = s.store.MigrationVersion(); err != nil {
		health.Status = "degraded"
		health.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.store.ActiveLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

// handleLocationLatest returns the most recent archived upstream payload
// verbatim.
func (s *Server) handleLocationLatest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.LatestRawPayload(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no payload archived for location: "+id)
		return
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Fetched-At", p.FetchedAt.UTC().Format(time.RFC3339))
	w.Header().Set("X-Run-Id", p.RunID)
	w.Write(p.Body)
}
