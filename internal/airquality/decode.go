package airquality

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lox/airguard/internal/models"
)

// Key aliases accepted by DecodeReadings. The Spanish keys match the
// legacy mock dataset served at /calidad-aire.
var (
	cityKeys    = []string{"city", "ciudad"}
	countryKeys = []string{"country", "pais"}
	dateKeys    = []string{"date", "fecha"}
)

// DecodeReadings parses a JSON array of reading objects. A missing or
// non-numeric pollutant field, a negative concentration or a missing city is
// reported as a *ValidationError instead of being carried into the engine.
// A JSON null or an empty array yields an empty slice.
func DecodeReadings(r io.Reader) ([]models.Reading, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read readings: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []models.Reading{}, nil
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	readings := make([]models.Reading, 0, len(raw))
	for i, obj := range raw {
		reading, err := decodeReading(i, obj)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func decodeReading(index int, obj map[string]json.RawMessage) (models.Reading, error) {
	var reading models.Reading
	if obj == nil {
		return reading, &ValidationError{Index: index, Field: "city", Reason: "reading is null"}
	}

	city, ok, err := stringField(obj, cityKeys)
	if err != nil {
		return reading, &ValidationError{Index: index, Field: "city", Reason: err.Error()}
	}
	if !ok || city == "" {
		return reading, &ValidationError{Index: index, Field: "city", Reason: "missing"}
	}
	reading.City = city

	country, _, err := stringField(obj, countryKeys)
	if err != nil {
		return reading, &ValidationError{Index: index, Field: "country", Reason: err.Error()}
	}
	reading.Country = country

	date, _, err := dateField(obj)
	if err != nil {
		return reading, &ValidationError{Index: index, Field: "date", Reason: err.Error()}
	}
	reading.Date = date

	for _, f := range PollutantFields {
		v, err := numberField(obj, string(f))
		if err != nil {
			return reading, &ValidationError{Index: index, Field: string(f), Reason: err.Error()}
		}
		setPollutant(&reading, f, v)
	}
	return reading, nil
}

func lookup(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

func stringField(obj map[string]json.RawMessage, keys []string) (string, bool, error) {
	v, ok := lookup(obj, keys)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false, fmt.Errorf("not a string")
	}
	return s, true, nil
}

// dateField accepts a string label or a numeric epoch-style value; numbers are
// kept in their JSON text form so they still sort as labels.
func dateField(obj map[string]json.RawMessage) (string, bool, error) {
	v, ok := lookup(obj, dateKeys)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true, nil
	}
	return "", false, fmt.Errorf("not a string or number")
}

func numberField(obj map[string]json.RawMessage, key string) (float64, error) {
	v, ok := lookup(obj, []string{key})
	if !ok {
		return 0, fmt.Errorf("missing")
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if f < 0 {
		return 0, fmt.Errorf("negative value %g", f)
	}
	return f, nil
}
