package airquality

import (
	"sort"

	"github.com/lox/airguard/internal/models"
)

// Summary is everything the dashboard header needs in one pass.
type Summary struct {
	Aggregates []models.CityAggregate `json:"aggregates"`
	Best       *models.CityAggregate  `json:"best,omitempty"`
	Worst      *models.CityAggregate  `json:"worst,omitempty"`
	CityCount  int                    `json:"cityCount"`
	Ranking    []RankedCity           `json:"ranking"`
}

// RankedCity is one row of the PM2.5 ranking.
type RankedCity struct {
	Position int                  `json:"position"`
	City     models.CityAggregate `json:"city"`
	Alert    Category             `json:"alert"`
}

// Summarize runs DefaultEngine.
func Summarize(readings []models.Reading) (Summary, error) {
	return DefaultEngine.Summarize(readings)
}

func (e Engine) Summarize(readings []models.Reading) (Summary, error) {
	aggs, err := e.AggregateByCity(readings)
	if err != nil {
		return Summary{}, err
	}
	return SummaryOf(aggs), nil
}

// SummaryOf derives extremes and the PM2.5 ranking from existing aggregates.
func SummaryOf(aggs []models.CityAggregate) Summary {
	best, worst := Extremes(aggs)
	ranked := RankByPollutant(aggs, FieldPM25, true)
	ranking := make([]RankedCity, 0, len(ranked))
	for i, a := range ranked {
		ranking = append(ranking, RankedCity{
			Position: i + 1,
			City:     a,
			Alert:    Classify(a.AvgPM25, PM25AlertThresholds),
		})
	}
	return Summary{
		Aggregates: aggs,
		Best:       best,
		Worst:      worst,
		CityCount:  len(aggs),
		Ranking:    ranking,
	}
}

// CityOption is a distinct city with the country of its first reading.
type CityOption struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Cities lists distinct cities sorted by name.
func Cities(readings []models.Reading) []CityOption {
	seen := make(map[string]bool)
	var out []CityOption
	for _, r := range readings {
		if seen[r.City] {
			continue
		}
		seen[r.City] = true
		out = append(out, CityOption{City: r.City, Country: r.Country})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// FilterCities keeps readings whose city is in selected. The result is a new
// slice; a nil or empty selection yields no readings.
func FilterCities(readings []models.Reading, selected []string) []models.Reading {
	want := make(map[string]bool, len(selected))
	for _, c := range selected {
		want[c] = true
	}
	out := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		if want[r.City] {
			out = append(out, r)
		}
	}
	return out
}
