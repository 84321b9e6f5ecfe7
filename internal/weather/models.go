package weather

import (
	"fmt"
	"time"
)

// StationKind selects which observations are collected for a station.
type StationKind string

const (
	// StationKindMet is an automated surface station reporting temperature and wind.
	StationKindMet StationKind = "met"
	// StationKindSnotel is a snowpack telemetry site reporting snow-water-equivalent.
	StationKindSnotel StationKind = "snotel"
)

// ParseStationKind validates a kind string.
func ParseStationKind(s string) (StationKind, error) {
	switch StationKind(s) {
	case StationKindMet, StationKindSnotel:
		return StationKind(s), nil
	default:
		return "", fmt.Errorf("unknown station kind %q", s)
	}
}

// Station is a fixed provider station we report on.
type Station struct {
	ID   string      `json:"id" validate:"required"`
	Kind StationKind `json:"kind" validate:"oneof=met snotel"`
	Name string      `json:"name,omitempty"`
}

// Window is one UTC calendar day as understood by the provider.
type Window struct {
	Day   time.Time
	Start string
	End   string
}

// Timeseries holds raw samples for one station keyed by provider variable set
// name (e.g. "air_temp_set_1"). Missing samples are nil.
type Timeseries struct {
	StationID string
	Name      string
	Times     []string
	Values    map[string][]*float64
}

// Series returns the non-null samples for a variable set in time order.
func (t *Timeseries) Series(set string) []float64 {
	if t == nil {
		return nil
	}
	raw := t.Values[set]
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Precipitation is the accumulated total reported over a window.
type Precipitation struct {
	Millimeters float64
	Start       string
	End         string
}

// Inches converts the total.
func (p Precipitation) Inches() float64 {
	return MillimetersToInches(p.Millimeters)
}

// SWEChange is the snow-water-equivalent change between the first and last
// report of a window.
type SWEChange struct {
	StartMM     float64
	EndMM       float64
	DeltaMM     float64
	DeltaInches float64
	Timestamps  []string
}

// MetSummary is the daily reduction of a met station's timeseries, already in
// imperial units. Nil fields had no samples.
type MetSummary struct {
	Name                 string
	Temperature          *float64
	High                 *float64
	Low                  *float64
	WindSpeed            *float64
	WindGust             *float64
	WindDirectionDegrees *float64
	WindDirection        string
}

// DailyRecord is the normalized per-station row for one day.
type DailyRecord struct {
	Date                string   `json:"date"`
	Station             string   `json:"station"`
	StationID           string   `json:"stationId"`
	Temperature         *float64 `json:"temperatureF,omitempty"`
	High                *float64 `json:"highF,omitempty"`
	Low                 *float64 `json:"lowF,omitempty"`
	WindSpeed           *float64 `json:"windSpeedMph,omitempty"`
	WindGust            *float64 `json:"windGustMph,omitempty"`
	WindDirection       string   `json:"windDirection,omitempty"`
	PrecipitationInches *float64 `json:"precipitationIn,omitempty"`
	SWEDeltaInches      *float64 `json:"sweDeltaIn,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// Conditions is the most recent observation set reported by a station.
type Conditions struct {
	StationID            string    `json:"stationId"`
	Station              string    `json:"station"`
	ObservedAt           *time.Time `json:"observedAt,omitempty"`
	Temperature          *float64   `json:"temperatureF,omitempty"`
	High                 *float64   `json:"highF,omitempty"`
	Low                  *float64   `json:"lowF,omitempty"`
	WindSpeed            *float64   `json:"windSpeedMph,omitempty"`
	WindGust             *float64   `json:"windGustMph,omitempty"`
	WindDirection        string     `json:"windDirection,omitempty"`
	WindDirectionDegrees *float64   `json:"windDirectionDeg,omitempty"`
}
