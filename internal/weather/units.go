package weather

import "math"

const (
	mpsToMPH = 2.237
	mmToIn   = 0.0393701
)

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func MetersPerSecondToMPH(mps float64) float64 {
	return mps * mpsToMPH
}

func MillimetersToInches(mm float64) float64 {
	return mm * mmToIn
}

// DegreesToCardinal maps a bearing to one of 16 compass points. Each point
// covers 22.5 degrees centred on its bearing.
func DegreesToCardinal(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return cardinals[int(math.Round(d/22.5))%16]
}

// convert applies fn to v, keeping nil as nil.
func convert(v *float64, fn func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := fn(*v)
	return &out
}
