// Package report builds Excel workbooks from an air-quality summary.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lox/airguard/internal/airquality"
)

const (
	SheetAggregates = "Aggregates"
	SheetRanking    = "Ranking"
)

var aggregateHeaders = []any{
	"City", "Country", "Readings",
	"Avg PM2.5", "Avg PM10", "Avg CO", "Avg O3", "Avg NO2",
	"Total", "Quality index", "Quality", "Contamination index", "Contamination",
}

var rankingHeaders = []any{"Position", "City", "Country", "Avg PM2.5", "Alert"}

// Build renders summary as an xlsx workbook with one sheet of per-city
// aggregates and one of the PM2.5 ranking.
func Build(summary airquality.Summary, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:   "AirGuard air quality report",
		Creator: "AirGuard",
		Created: generatedAt.UTC().Format(time.RFC3339),
	})

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetAggregates); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeAggregates(f, summary, bold); err != nil {
		return nil, fmt.Errorf("write aggregates sheet: %w", err)
	}

	if _, err := f.NewSheet(SheetRanking); err != nil {
		return nil, fmt.Errorf("create ranking sheet: %w", err)
	}
	if err := writeRanking(f, summary, bold); err != nil {
		return nil, fmt.Errorf("write ranking sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAggregates(f *excelize.File, summary airquality.Summary, headerStyle int) error {
	if err := writeHeader(f, SheetAggregates, aggregateHeaders, headerStyle); err != nil {
		return err
	}

	for i, a := range summary.Aggregates {
		quality := airquality.Classify(a.QualityIndex, airquality.GaugeThresholds)
		contamination := airquality.Classify(a.ContaminationIndex, airquality.GaugeThresholds)
		row := []any{
			a.City, a.Country, a.Count,
			round2(a.AvgPM25), round2(a.AvgPM10), round2(a.AvgCO), round2(a.AvgO3), round2(a.AvgNO2),
			round2(a.TotalAvg), round2(a.QualityIndex), quality.Label(),
			round2(a.ContaminationIndex), contamination.Label(),
		}
		if err := setRow(f, SheetAggregates, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(SheetAggregates, "A", "B", 18)
	f.SetColWidth(SheetAggregates, "C", "M", 14)
	return nil
}

func writeRanking(f *excelize.File, summary airquality.Summary, headerStyle int) error {
	if err := writeHeader(f, SheetRanking, rankingHeaders, headerStyle); err != nil {
		return err
	}

	for i, r := range summary.Ranking {
		row := []any{r.Position, r.City.City, r.City.Country, round2(r.City.AvgPM25), r.Alert.Label()}
		if err := setRow(f, SheetRanking, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(SheetRanking, "B", "C", 18)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []any, style int) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
