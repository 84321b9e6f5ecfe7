package weather

// Provider variable set names in timeseries responses.
const (
	SetAirTemp       = "air_temp_set_1"
	SetWindSpeed     = "wind_speed_set_1"
	SetWindDirection = "wind_direction_set_1"
	SetSnowWaterEq   = "snow_water_equiv_set_1"
)

func last(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v := xs[len(xs)-1]
	return &v
}

func maxOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return &m
}

func minOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return &m
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	avg := sum / float64(len(xs))
	return &avg
}

// SummarizeMet reduces a met station's day of samples: last/max/min air
// temperature, mean/max wind speed and the last wind direction.
func SummarizeMet(ts *Timeseries) MetSummary {
	if ts == nil {
		return MetSummary{}
	}

	temps := ts.Series(SetAirTemp)
	winds := ts.Series(SetWindSpeed)
	dirs := ts.Series(SetWindDirection)

	s := MetSummary{
		Name:                 ts.Name,
		Temperature:          convert(last(temps), CelsiusToFahrenheit),
		High:                 convert(maxOf(temps), CelsiusToFahrenheit),
		Low:                  convert(minOf(temps), CelsiusToFahrenheit),
		WindSpeed:            convert(mean(winds), MetersPerSecondToMPH),
		WindGust:             convert(maxOf(winds), MetersPerSecondToMPH),
		WindDirectionDegrees: last(dirs),
	}
	if s.WindDirectionDegrees != nil {
		s.WindDirection = DegreesToCardinal(*s.WindDirectionDegrees)
	}
	return s
}

// ComputeSWEChange returns the change between the first and last SWE report,
// or nil when the station reported none.
func ComputeSWEChange(ts *Timeseries) *SWEChange {
	values := ts.Series(SetSnowWaterEq)
	if len(values) == 0 {
		return nil
	}
	first, lastMM := values[0], values[len(values)-1]
	delta := lastMM - first
	return &SWEChange{
		StartMM:     first,
		EndMM:       lastMM,
		DeltaMM:     delta,
		DeltaInches: MillimetersToInches(delta),
		Timestamps:  ts.Times,
	}
}
