// Package report turns normalized daily records into spreadsheet rows.
//
// Every row has the same eleven columns. Missing values are written as "-" so
// a reviewer can tell "not reported" apart from zero. Temperatures and wind
// speeds carry one decimal, precipitation and SWE two.
package report

import (
	"strconv"
	"strings"

	"github.com/i474232898/pass-weather-report/internal/weather"
)

// Missing is written in place of absent values.
const Missing = "-"

// Columns is the header row, in column order A through K.
var Columns = []string{
	"Date",
	"Station",
	"Current Temperature (°F)",
	"24-Hour High Temperature (°F)",
	"24-Hour Low Temperature (°F)",
	"Average Wind Speed (mph)",
	"Peak Wind Speed (mph)",
	"Wind Direction (Cardinal)",
	"Precipitation (in)",
	"SWE Change (in)",
	"Notes",
}

// Header returns a copy of the header row.
func Header() []string {
	return append([]string(nil), Columns...)
}

// FormatNumber renders v with a fixed number of decimals, or Missing when nil.
func FormatNumber(v *float64, decimals int) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// FormatString returns s, or Missing when it is empty or blank.
func FormatString(s string) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return s
}

// Row converts a record to its spreadsheet row. Notes are written verbatim.
func Row(r weather.DailyRecord) []string {
	return []string{
		r.Date,
		FormatString(r.Station),
		FormatNumber(r.Temperature, 1),
		FormatNumber(r.High, 1),
		FormatNumber(r.Low, 1),
		FormatNumber(r.WindSpeed, 1),
		FormatNumber(r.WindGust, 1),
		FormatString(r.WindDirection),
		FormatNumber(r.PrecipitationInches, 2),
		FormatNumber(r.SWEDeltaInches, 2),
		r.Notes,
	}
}

// Rows converts records in order.
func Rows(records []weather.DailyRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row(r))
	}
	return rows
}
