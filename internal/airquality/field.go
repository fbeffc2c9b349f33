package airquality

import (
	"fmt"

	"github.com/lox/airguard/internal/models"
)

// Field names a value that aggregates can be ranked or classified by.
type Field string

const (
	FieldPM25 Field = "pm2_5"
	FieldPM10 Field = "pm10"
	FieldCO   Field = "co"
	FieldO3   Field = "o3"
	FieldNO2  Field = "no2"

	FieldTotal         Field = "total"
	FieldQuality       Field = "quality"
	FieldContamination Field = "contamination"
)

// PollutantFields are the five measured concentrations, in display order.
var PollutantFields = []Field{FieldPM25, FieldPM10, FieldCO, FieldO3, FieldNO2}

var fieldLabels = map[Field]string{
	FieldPM25:          "PM2.5",
	FieldPM10:          "PM10",
	FieldCO:            "CO",
	FieldO3:            "O3",
	FieldNO2:           "NO2",
	FieldTotal:         "Total",
	FieldQuality:       "Quality index",
	FieldContamination: "Contamination index",
}

// ParseField accepts the JSON field names plus a few common spellings.
func ParseField(s string) (Field, error) {
	switch s {
	case "pm2_5", "pm25", "pm2.5":
		return FieldPM25, nil
	case "pm10":
		return FieldPM10, nil
	case "co":
		return FieldCO, nil
	case "o3":
		return FieldO3, nil
	case "no2":
		return FieldNO2, nil
	case "total", "totalAvg":
		return FieldTotal, nil
	case "quality", "qualityIndex":
		return FieldQuality, nil
	case "contamination", "contaminationIndex":
		return FieldContamination, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Value returns the aggregate's value for the field.
func (f Field) Value(a models.CityAggregate) float64 {
	switch f {
	case FieldPM25:
		return a.AvgPM25
	case FieldPM10:
		return a.AvgPM10
	case FieldCO:
		return a.AvgCO
	case FieldO3:
		return a.AvgO3
	case FieldNO2:
		return a.AvgNO2
	case FieldTotal:
		return a.TotalAvg
	case FieldQuality:
		return a.QualityIndex
	case FieldContamination:
		return a.ContaminationIndex
	}
	return 0
}

func pollutant(r models.Reading, f Field) float64 {
	switch f {
	case FieldPM25:
		return r.PM25
	case FieldPM10:
		return r.PM10
	case FieldCO:
		return r.CO
	case FieldO3:
		return r.O3
	case FieldNO2:
		return r.NO2
	}
	return 0
}

func setPollutant(r *models.Reading, f Field, v float64) {
	switch f {
	case FieldPM25:
		r.PM25 = v
	case FieldPM10:
		r.PM10 = v
	case FieldCO:
		r.CO = v
	case FieldO3:
		r.O3 = v
	case FieldNO2:
		r.NO2 = v
	}
}
