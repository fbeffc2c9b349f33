package api

import (
	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/models"
)

// gaugeArc is the stroke length of a full circular gauge in the SVG path.
const gaugeArc = 0.79

// Gauge is one circular percentage gauge on a city card.
type Gauge struct {
	Percent float64
	Dash    float64
	Class   string
	Label   string
}

// newQualityGauge shows the remaining headroom (100 - index) but is colored
// by the index itself, so a clean city reads as a full green gauge.
func newQualityGauge(index float64) Gauge {
	c := airquality.Classify(index, airquality.GaugeThresholds)
	return Gauge{
		Percent: 100 - index,
		Dash:    (100 - index) * gaugeArc,
		Class:   c.CSSClass(),
		Label:   c.Label(),
	}
}

func newContaminationGauge(index float64) Gauge {
	c := airquality.Classify(index, airquality.GaugeThresholds)
	return Gauge{
		Percent: index,
		Dash:    index * gaugeArc,
		Class:   c.CSSClass(),
		Label:   c.Label(),
	}
}

// CityCard is one city's panel on the dashboard.
type CityCard struct {
	Aggregate     models.CityAggregate
	Quality       Gauge
	Contamination Gauge
	Chart         SeriesChart
	ChartID       string
}

// SeriesChart is the Chart.js data block for one city card.
type SeriesChart struct {
	Labels   []string        `json:"labels"`
	Datasets []SeriesDataset `json:"datasets"`
}

type SeriesDataset struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	BorderColor string    `json:"borderColor"`
}

var seriesColors = map[airquality.Field]string{
	airquality.FieldPM25: "#e6781e",
	airquality.FieldPM10: "#12324a",
	airquality.FieldCO:   "#7a7a7a",
	airquality.FieldO3:   "#2e8b57",
	airquality.FieldNO2:  "#b22222",
}

// newSeriesChart draws one line per pollutant.
func newSeriesChart(cs airquality.CitySeries) SeriesChart {
	chart := SeriesChart{Labels: cs.Labels}
	for _, f := range airquality.PollutantFields {
		chart.Datasets = append(chart.Datasets, SeriesDataset{
			Label:       f.Label(),
			Data:        cs.Values(f),
			BorderColor: seriesColors[f],
		})
	}
	return chart
}

type CitySelection struct {
	City     string
	Country  string
	Selected bool
}

// DashboardData is the air-quality-dashboard view.
type DashboardData struct {
	Summary airquality.Summary
	Cities  []CitySelection
	Cards   []CityCard
	HasData bool
	// NoneSelected is set when the selector left no city card to draw.
	NoneSelected bool
}

// PollutantCell is one colored value in the chart view's table.
type PollutantCell struct {
	Value float64
	Class string
}

type ChartRow struct {
	City  string
	Cells []PollutantCell
}

// ChartData is the air-quality-chart view: a PM2.5/PM10 bar chart plus a
// table of every pollutant colored per pollutant.
type ChartData struct {
	Labels  []string
	PM25    []float64
	PM10    []float64
	Fields  []airquality.Field
	Rows    []ChartRow
	HasData bool
}

type RecommendationsData struct {
	Recommendations []models.Recommendation
	DraftEnabled    bool
}

type Article struct {
	Title       string
	Description string
}

type TeamMember struct {
	Name string
	Role string
}

type HomeData struct {
	CityCount int
	Worst     *models.CityAggregate
}

// ShellData is the application shell around the active component.
type ShellData struct {
	Active     string
	Title      string
	Components []MenuItem
	Content    any
	NotFound   string
}

type MenuItem struct {
	Name   string
	Title  string
	Active bool
}
