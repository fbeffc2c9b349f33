package ingest

import (
	"github.com/lox/airguard/internal/models"
)

const (
	FlagPM25Implausible = "pm2_5_implausible"
	FlagPM10Implausible = "pm10_implausible"
	FlagCOImplausible   = "co_implausible"
	FlagO3Implausible   = "o3_implausible"
	FlagNO2Implausible  = "no2_implausible"
	FlagPM10BelowPM25   = "pm10_below_pm2_5"
)

// Upper bounds beyond which a concentration is almost certainly a sensor or
// unit error. Readings are still imported; the flags are only logged.
const (
	maxPM25 = 1000
	maxPM10 = 2000
	maxCO   = 100
	maxO3   = 1000
	maxNO2  = 2000
)

// ValidateReading returns quality flags for values that decode fine but look
// wrong.
func ValidateReading(r models.Reading) []string {
	var flags []string

	if r.PM25 > maxPM25 {
		flags = append(flags, FlagPM25Implausible)
	}
	if r.PM10 > maxPM10 {
		flags = append(flags, FlagPM10Implausible)
	}
	if r.CO > maxCO {
		flags = append(flags, FlagCOImplausible)
	}
	if r.O3 > maxO3 {
		flags = append(flags, FlagO3Implausible)
	}
	if r.NO2 > maxNO2 {
		flags = append(flags, FlagNO2Implausible)
	}

	// PM10 includes PM2.5 by definition.
	if r.PM10 > 0 && r.PM10 < r.PM25 {
		flags = append(flags, FlagPM10BelowPM25)
	}

	return flags
}
