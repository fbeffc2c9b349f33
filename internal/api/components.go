package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/components"
)

// DefaultComponent is shown when the shell is opened without a selection.
const DefaultComponent = "inicio-componente"

var articles = []Article{
	{
		Title:       "What is PM2.5?",
		Description: "PM2.5 particles are small enough to reach deep into the lungs and can cause serious respiratory problems.",
	},
	{
		Title:       "How ozone affects your health",
		Description: "Ground-level ozone irritates the lungs and reduces lung function, especially for people with asthma.",
	},
	{
		Title:       "Protecting yourself from polluted air",
		Description: "Avoid exercising outdoors at rush hour, keep doors closed and use HEPA filters where you can.",
	},
}

var team = []TeamMember{
	{Name: "Johan Alomia", Role: "Frontend developer"},
	{Name: "Luis Carrillo", Role: "UI/UX designer"},
}

func (s *Server) registerComponents() *components.Registry {
	reg := components.NewRegistry()
	reg.Register(components.Component{Name: "inicio-componente", Title: "Home", Template: "home.html", Load: s.loadHome})
	reg.Register(components.Component{Name: "air-quality-dashboard", Title: "Dashboard", Template: "dashboard.html", Load: s.loadDashboard})
	reg.Register(components.Component{Name: "air-quality-chart", Title: "Chart", Template: "chart.html", Load: s.loadChart})
	reg.Register(components.Component{Name: "user-recommendations", Title: "Recommendations", Template: "recommendations.html", Load: s.loadRecommendations})
	reg.Register(components.Component{Name: "data-crud", Title: "Manage tips", Template: "crud.html", Load: s.loadRecommendations})
	reg.Register(components.Component{Name: "educational-section", Title: "Learn", Template: "education.html", Load: static(articles)})
	reg.Register(components.Component{Name: "about-team", Title: "About", Template: "about.html", Load: static(team)})
	return reg
}

func static(v any) components.LoadFunc {
	return func(context.Context, *http.Request) (any, error) { return v, nil }
}

func (s *Server) loadHome(ctx context.Context, r *http.Request) (any, error) {
	summary, _, err := s.summarize(ctx, nil)
	if err != nil {
		return nil, err
	}
	return HomeData{CityCount: summary.CityCount, Worst: summary.Worst}, nil
}

// selectionParam marks a submitted city selector. With it and no ?city=
// values nothing is selected; without it every city is.
const selectionParam = "selection"

// loadDashboard builds the dashboard. The summary, best/worst cards and the
// ranking always cover every city; ?city= only picks which city cards are
// drawn.
func (s *Server) loadDashboard(ctx context.Context, r *http.Request) (any, error) {
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.Summarize(readings)
	if err != nil {
		return nil, err
	}

	options := airquality.Cities(readings)
	q := r.URL.Query()
	selected := q["city"]
	if len(selected) == 0 && q.Get(selectionParam) == "" {
		for _, o := range options {
			selected = append(selected, o.City)
		}
	}
	isSelected := make(map[string]bool, len(selected))
	for _, c := range selected {
		isSelected[c] = true
	}

	data := DashboardData{Summary: summary, HasData: len(readings) > 0}
	for _, o := range options {
		data.Cities = append(data.Cities, CitySelection{City: o.City, Country: o.Country, Selected: isSelected[o.City]})
	}

	series := make(map[string]airquality.CitySeries)
	for _, cs := range airquality.SeriesByCity(airquality.FilterCities(readings, selected)) {
		series[cs.City] = cs
	}
	for _, agg := range summary.Aggregates {
		if !isSelected[agg.City] {
			continue
		}
		data.Cards = append(data.Cards, CityCard{
			Aggregate:     agg,
			Quality:       newQualityGauge(agg.QualityIndex),
			Contamination: newContaminationGauge(agg.ContaminationIndex),
			Chart:         newSeriesChart(series[agg.City]),
			ChartID:       fmt.Sprintf("city-chart-%d", len(data.Cards)),
		})
	}
	data.NoneSelected = len(data.Cards) == 0
	return data, nil
}

func (s *Server) loadChart(ctx context.Context, r *http.Request) (any, error) {
	summary, _, err := s.summarize(ctx, r.URL.Query()["city"])
	if err != nil {
		return nil, err
	}

	data := ChartData{Fields: airquality.PollutantFields, HasData: len(summary.Aggregates) > 0}
	for _, agg := range summary.Aggregates {
		data.Labels = append(data.Labels, agg.City)
		data.PM25 = append(data.PM25, agg.AvgPM25)
		data.PM10 = append(data.PM10, agg.AvgPM10)

		row := ChartRow{City: agg.City}
		for _, f := range airquality.PollutantFields {
			v := f.Value(agg)
			row.Cells = append(row.Cells, PollutantCell{
				Value: v,
				Class: airquality.Classify(v, airquality.PollutantThresholds[f]).CSSClass(),
			})
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

func (s *Server) loadRecommendations(ctx context.Context, r *http.Request) (any, error) {
	recs, err := s.store.ListRecommendations(ctx)
	if err != nil {
		return nil, err
	}
	return RecommendationsData{Recommendations: recs, DraftEnabled: s.drafter != nil}, nil
}
