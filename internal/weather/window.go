package weather

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ProviderTimeLayout is the UTC timestamp layout accepted by the provider's
// start/end parameters.
const ProviderTimeLayout = "200601021504"

// DateLayout is the calendar date layout used in rows and flags.
const DateLayout = "2006-01-02"

// DayWindow returns the UTC day containing t, from 00:00 through 23:59.
func DayWindow(t time.Time) Window {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Minute)
	return Window{
		Day:   start,
		Start: start.Format(ProviderTimeLayout),
		End:   end.Format(ProviderTimeLayout),
	}
}

// TargetDay returns the start of the UTC day offset days before now.
func TargetDay(clock clockwork.Clock, offset int) time.Time {
	now := clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -offset)
}

// Date formats the window's day for rows.
func (w Window) Date() string {
	return w.Day.Format(DateLayout)
}
