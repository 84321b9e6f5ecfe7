package weather

import (
	"context"
	"time"
)

// Variables requested from the timeseries endpoint per station kind.
var (
	MetVariables    = []string{"air_temp", "wind_speed", "wind_direction"}
	SnotelVariables = []string{"snow_water_equiv"}
)

// LatestObservation is a station's most recent reading in provider (metric) units.
type LatestObservation struct {
	StationID        string
	Name             string
	ObservedAt       time.Time
	AirTempC         *float64
	HighC            *float64
	LowC             *float64
	WindSpeedMS      *float64
	WindGustMS       *float64
	WindDirectionDeg *float64
	WindCardinal     string
}

// Provider abstracts the meteorological data source. A nil result with a nil
// error means the station reported nothing for the request.
type Provider interface {
	Name() string
	Timeseries(ctx context.Context, stationID string, vars []string, w Window) (*Timeseries, error)
	Precipitation(ctx context.Context, stationID string, w Window) (*Precipitation, error)
	Latest(ctx context.Context, stationID string) (*LatestObservation, error)
}
