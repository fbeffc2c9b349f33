package models

import "time"

// Reading is one pollutant measurement for a city. Concentrations are in the
// units of the source dataset (µg/m³ for particulates).
type Reading struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	PM25    float64 `json:"pm2_5"`
	PM10    float64 `json:"pm10"`
	CO      float64 `json:"co"`
	O3      float64 `json:"o3"`
	NO2     float64 `json:"no2"`
	Date    string  `json:"date,omitempty"` // optional timestamp or day label
}

// CityAggregate is the per-city summary produced by the aggregation engine.
type CityAggregate struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Count   int    `json:"count"`

	AvgPM25 float64 `json:"avgPm25"`
	AvgPM10 float64 `json:"avgPm10"`
	AvgCO   float64 `json:"avgCo"`
	AvgO3   float64 `json:"avgO3"`
	AvgNO2  float64 `json:"avgNo2"`

	// TotalAvg is the plain sum of the five averages. Units are mixed; it is
	// only meaningful for ordering cities against each other.
	TotalAvg float64 `json:"totalAvg"`

	QualityIndex       float64 `json:"qualityIndex"`
	ContaminationIndex float64 `json:"contaminationIndex"`
}

type Recommendation struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Location is a coordinate pair polled against the upstream air-quality API.
type Location struct {
	LocationID string  `json:"id"`
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Active     bool    `json:"active"`
}

type RawPayload struct {
	ID          int64
	LocationID  string
	RunID       string
	FetchedAt   time.Time
	HTTPStatus  int
	ContentType string
	Body        []byte
}
