package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnknownStation is returned for station IDs outside the configured set.
	ErrUnknownStation = errors.New("unknown station")
	// ErrNoData is returned when every fetch of a collection failed.
	ErrNoData = errors.New("no station data collected")
)

// Service fetches and normalizes observations for the configured stations.
type Service struct {
	provider Provider
	stations []Station
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(provider Provider, stations []Station, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		stations: stations,
		logger:   logger.With("component", "weather-service"),
	}
}

// Stations returns the configured station list.
func (s *Service) Stations() []Station {
	return s.stations
}

// Collect builds one DailyRecord per station for the window. Stations are
// fetched one after another. Individual fetch failures are logged and noted on
// the record; Collect only fails when nothing at all could be fetched.
func (s *Service) Collect(ctx context.Context, w Window) ([]DailyRecord, error) {
	if len(s.stations) == 0 {
		return nil, fmt.Errorf("no stations configured")
	}

	records := make([]DailyRecord, 0, len(s.stations))
	var attempts, failures int

	for _, st := range s.stations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, tried, failed := s.collectStation(ctx, st, w)
		attempts += tried
		failures += failed
		records = append(records, rec)
	}

	if attempts > 0 && failures == attempts {
		return nil, ErrNoData
	}
	return records, nil
}

func (s *Service) collectStation(ctx context.Context, st Station, w Window) (DailyRecord, int, int) {
	rec := DailyRecord{
		Date:      w.Date(),
		StationID: st.ID,
	}
	var notes []string
	var apiName string
	tried, failed := 0, 0

	fail := func(what string, err error) {
		failed++
		s.logger.Warn("station fetch failed",
			"station", st.ID,
			"kind", st.Kind,
			"fetch", what,
			"error", err,
		)
		notes = append(notes, what+" unavailable")
	}

	switch st.Kind {
	case StationKindMet:
		tried++
		ts, err := s.provider.Timeseries(ctx, st.ID, MetVariables, w)
		if err != nil {
			fail("timeseries", err)
		} else if ts != nil {
			sum := SummarizeMet(ts)
			apiName = sum.Name
			rec.Temperature = sum.Temperature
			rec.High = sum.High
			rec.Low = sum.Low
			rec.WindSpeed = sum.WindSpeed
			rec.WindGust = sum.WindGust
			rec.WindDirection = sum.WindDirection
		}
	case StationKindSnotel:
		tried++
		ts, err := s.provider.Timeseries(ctx, st.ID, SnotelVariables, w)
		if err != nil {
			fail("swe", err)
		} else if ts != nil {
			apiName = ts.Name
			if swe := ComputeSWEChange(ts); swe != nil {
				rec.SWEDeltaInches = &swe.DeltaInches
			}
		}
	}

	tried++
	precip, err := s.provider.Precipitation(ctx, st.ID, w)
	if err != nil {
		fail("precipitation", err)
	} else if precip != nil {
		in := precip.Inches()
		rec.PrecipitationInches = &in
		s.logger.Debug("precipitation window",
			"station", st.ID,
			"first_report", precip.Start,
			"last_report", precip.End,
		)
	}

	rec.Station = stationName(st, apiName)
	rec.Notes = strings.Join(notes, "; ")

	s.logger.Info("station collected",
		"station", st.ID,
		"date", rec.Date,
		"fetches", tried,
		"failed", failed,
	)
	return rec, tried, failed
}

// Current returns the latest conditions reported by a configured station.
func (s *Service) Current(ctx context.Context, stationID string) (Conditions, error) {
	st, ok := s.station(stationID)
	if !ok {
		return Conditions{}, fmt.Errorf("%w: %s", ErrUnknownStation, stationID)
	}

	obs, err := s.provider.Latest(ctx, st.ID)
	if err != nil {
		return Conditions{}, fmt.Errorf("latest %s: %w", st.ID, err)
	}
	if obs == nil {
		return Conditions{StationID: st.ID, Station: stationName(st, "")}, nil
	}

	c := Conditions{
		StationID:            st.ID,
		Station:              stationName(st, obs.Name),
		Temperature:          convert(obs.AirTempC, CelsiusToFahrenheit),
		High:                 convert(obs.HighC, CelsiusToFahrenheit),
		Low:                  convert(obs.LowC, CelsiusToFahrenheit),
		WindSpeed:            convert(obs.WindSpeedMS, MetersPerSecondToMPH),
		WindGust:             convert(obs.WindGustMS, MetersPerSecondToMPH),
		WindDirection:        obs.WindCardinal,
		WindDirectionDegrees: obs.WindDirectionDeg,
	}
	if !obs.ObservedAt.IsZero() {
		at := obs.ObservedAt
		c.ObservedAt = &at
	}
	if c.WindDirection == "" && c.WindDirectionDegrees != nil {
		c.WindDirection = DegreesToCardinal(*c.WindDirectionDegrees)
	}
	return c, nil
}

func (s *Service) station(id string) (Station, bool) {
	for _, st := range s.stations {
		if strings.EqualFold(st.ID, id) {
			return st, true
		}
	}
	return Station{}, false
}

// stationName prefers the configured display name, then the provider's name,
// then the station ID.
func stationName(st Station, apiName string) string {
	switch {
	case strings.TrimSpace(st.Name) != "":
		return st.Name
	case strings.TrimSpace(apiName) != "":
		return apiName
	default:
		return st.ID
	}
}
