package airquality

import (
	"sort"
	"time"

	"github.com/lox/airguard/internal/models"
)

// UnknownDateLabel labels readings without a date.
const UnknownDateLabel = "unknown"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CitySeries is one city's readings in chronological order.
type CitySeries struct {
	City    string    `json:"city"`
	Country string    `json:"country"`
	Labels  []string  `json:"labels"`
	PM25    []float64 `json:"pm2_5"`
	PM10    []float64 `json:"pm10"`
	CO      []float64 `json:"co"`
	O3      []float64 `json:"o3"`
	NO2     []float64 `json:"no2"`
}

// Values returns the series for a pollutant field.
func (s CitySeries) Values(f Field) []float64 {
	switch f {
	case FieldPM25:
		return s.PM25
	case FieldPM10:
		return s.PM10
	case FieldCO:
		return s.CO
	case FieldO3:
		return s.O3
	case FieldNO2:
		return s.NO2
	}
	return nil
}

type datedReading struct {
	r      models.Reading
	t      time.Time
	parsed bool
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rank orders parsed dates first, then unparseable labels, then absent dates.
func (d datedReading) rank() int {
	switch {
	case d.parsed:
		return 0
	case d.r.Date != "":
		return 1
	default:
		return 2
	}
}

func lessByDate(a, b datedReading) bool {
	ra, rb := a.rank(), b.rank()
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		return a.t.Before(b.t)
	case 1:
		return a.r.Date < b.r.Date
	}
	return false
}

// SeriesByCity groups readings per city (first-seen order) and sorts each
// group by date with a stable sort.
func SeriesByCity(readings []models.Reading) []CitySeries {
	groups := make(map[string][]datedReading)
	countries := make(map[string]string)
	var order []string
	for _, r := range readings {
		if _, ok := groups[r.City]; !ok {
			order = append(order, r.City)
			countries[r.City] = r.Country
		}
		t, ok := parseDate(r.Date)
		groups[r.City] = append(groups[r.City], datedReading{r: r, t: t, parsed: ok})
	}

	out := make([]CitySeries, 0, len(order))
	for _, city := range order {
		g := groups[city]
		sort.SliceStable(g, func(i, j int) bool { return lessByDate(g[i], g[j]) })

		s := CitySeries{City: city, Country: countries[city]}
		for _, d := range g {
			label := d.r.Date
			if label == "" {
				label = UnknownDateLabel
			}
			s.Labels = append(s.Labels, label)
			s.PM25 = append(s.PM25, d.r.PM25)
			s.PM10 = append(s.PM10, d.r.PM10)
			s.CO = append(s.CO, d.r.CO)
			s.O3 = append(s.O3, d.r.O3)
			s.NO2 = append(s.NO2, d.r.NO2)
		}
		out = append(out, s)
	}
	return out
}
