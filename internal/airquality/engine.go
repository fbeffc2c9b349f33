// Package airquality groups pollutant readings by city and derives the
// averaged concentrations, bounded indices and rankings shown on the
// dashboard. Every function is pure: inputs are never mutated and no state is
// kept between calls.
package airquality

import (
	"math"

	"github.com/lox/airguard/internal/models"
)

// Formula holds the constants of the two derived indices.
//
//	quality       = min(Ceiling, (avgPM25/PM25Reference + avgPM10/PM10Reference) * QualityScale)
//	contamination = min(Ceiling, (avgPM25+avgPM10+avgCO+avgO3+avgNO2) / 5)
//
// Only the upper bound is clamped.
type Formula struct {
	PM25Reference float64
	PM10Reference float64
	QualityScale  float64
	Ceiling       float64
}

var DefaultFormula = Formula{
	PM25Reference: 100,
	PM10Reference: 150,
	QualityScale:  50,
	Ceiling:       100,
}

func (f Formula) QualityIndex(avgPM25, avgPM10 float64) float64 {
	return math.Min(f.Ceiling, (avgPM25/f.PM25Reference+avgPM10/f.PM10Reference)*f.QualityScale)
}

func (f Formula) ContaminationIndex(avgPM25, avgPM10, avgCO, avgO3, avgNO2 float64) float64 {
	return math.Min(f.Ceiling, (avgPM25+avgPM10+avgCO+avgO3+avgNO2)/5)
}

// CountryPolicy decides what happens when readings of one city carry
// different country values.
type CountryPolicy int

const (
	// CountryFirstSeen keeps the country of the first reading of the city.
	CountryFirstSeen CountryPolicy = iota
	// CountryStrict rejects the input with a *ValidationError.
	CountryStrict
)

type Engine struct {
	Formula       Formula
	CountryPolicy CountryPolicy
}

var DefaultEngine = Engine{Formula: DefaultFormula, CountryPolicy: CountryFirstSeen}

// AggregateByCity runs DefaultEngine.
func AggregateByCity(readings []models.Reading) ([]models.CityAggregate, error) {
	return DefaultEngine.AggregateByCity(readings)
}

type cityGroup struct {
	city    string
	country string
	count   int
	sums    [5]float64 // indexed like PollutantFields
}

// AggregateByCity partitions readings by exact city name and returns one
// aggregate per city in first-seen order. Empty input gives an empty slice.
func (e Engine) AggregateByCity(readings []models.Reading) ([]models.CityAggregate, error) {
	groups := make(map[string]*cityGroup)
	var order []*cityGroup

	for i, r := range readings {
		if err := checkReading(i, r); err != nil {
			return nil, err
		}
		g, ok := groups[r.City]
		if !ok {
			g = &cityGroup{city: r.City, country: r.Country}
			groups[r.City] = g
			order = append(order, g)
		} else if e.CountryPolicy == CountryStrict && r.Country != g.country {
			return nil, &ValidationError{
				Index:  i,
				Field:  "country",
				Reason: "city " + r.City + " already seen with country " + g.country,
			}
		}
		g.count++
		for j, f := range PollutantFields {
			g.sums[j] += pollutant(r, f)
		}
	}

	out := make([]models.CityAggregate, 0, len(order))
	for _, g := range order {
		out = append(out, e.finish(g))
	}
	return out, nil
}

func (e Engine) finish(g *cityGroup) models.CityAggregate {
	// count is at least 1: a group exists only once a reading created it.
	n := float64(g.count)
	a := models.CityAggregate{
		City:    g.city,
		Country: g.country,
		Count:   g.count,
		AvgPM25: g.sums[0] / n,
		AvgPM10: g.sums[1] / n,
		AvgCO:   g.sums[2] / n,
		AvgO3:   g.sums[3] / n,
		AvgNO2:  g.sums[4] / n,
	}
	a.TotalAvg = a.AvgPM25 + a.AvgPM10 + a.AvgCO + a.AvgO3 + a.AvgNO2
	a.QualityIndex = e.Formula.QualityIndex(a.AvgPM25, a.AvgPM10)
	a.ContaminationIndex = e.Formula.ContaminationIndex(a.AvgPM25, a.AvgPM10, a.AvgCO, a.AvgO3, a.AvgNO2)
	return a
}

func checkReading(i int, r models.Reading) error {
	if r.City == "" {
		return &ValidationError{Index: i, Field: "city", Reason: "missing"}
	}
	for _, f := range PollutantFields {
		v := pollutant(r, f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Index: i, Field: string(f), Reason: "not a finite number"}
		}
	}
	return nil
}
