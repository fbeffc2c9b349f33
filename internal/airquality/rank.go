package airquality

import (
	"sort"

	"github.com/lox/airguard/internal/models"
)

// RankByPollutant returns a sorted copy of aggregates. The sort is stable, so
// cities with equal values keep their input order.
func RankByPollutant(aggregates []models.CityAggregate, field Field, ascending bool) []models.CityAggregate {
	out := make([]models.CityAggregate, len(aggregates))
	copy(out, aggregates)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return field.Value(out[i]) < field.Value(out[j])
		}
		return field.Value(out[i]) > field.Value(out[j])
	})
	return out
}

// Extremes returns the cities with the lowest and highest TotalAvg. On ties
// the city seen first wins. Both are nil for empty input.
func Extremes(aggregates []models.CityAggregate) (best, worst *models.CityAggregate) {
	if len(aggregates) == 0 {
		return nil, nil
	}
	asc := RankByPollutant(aggregates, FieldTotal, true)
	desc := RankByPollutant(aggregates, FieldTotal, false)
	b, w := asc[0], desc[0]
	return &b, &w
}
