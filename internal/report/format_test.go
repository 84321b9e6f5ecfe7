package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pass-weather-report/internal/weather"
)

func ptr(v float64) *float64 { return &v }

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "-", FormatNumber(nil, 1))
	assert.Equal(t, "41.0", FormatNumber(ptr(41), 1))
	assert.Equal(t, "-3.5", FormatNumber(ptr(-3.46), 1))
	assert.Equal(t, "0.10", FormatNumber(ptr(0.0999), 2))
	assert.Equal(t, "0.00", FormatNumber(ptr(0), 2))
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "-", FormatString(""))
	assert.Equal(t, "-", FormatString("   "))
	assert.Equal(t, "NNE", FormatString("NNE"))
}

func TestRow(t *testing.T) {
	row := Row(weather.DailyRecord{
		Date:                "2025-01-05",
		Station:             "Methow Valley",
		Temperature:         ptr(28.04),
		High:                ptr(35.6),
		Low:                 ptr(19.94),
		WindSpeed:           ptr(4.4740),
		WindGust:            ptr(13.422),
		WindDirection:       "SW",
		PrecipitationInches: ptr(0.0393701),
	})

	assert.Equal(t, []string{
		"2025-01-05", "Methow Valley", "28.0", "35.6", "19.9", "4.5", "13.4", "SW", "0.04", "-", "",
	}, row)
	assert.Len(t, row, len(Columns))
}

func TestRow_AllMissing(t *testing.T) {
	row := Row(weather.DailyRecord{Date: "2025-01-05", Notes: "precipitation unavailable"})

	assert.Equal(t, []string{
		"2025-01-05", "-", "-", "-", "-", "-", "-", "-", "-", "-", "precipitation unavailable",
	}, row)
}

func TestRows_PreservesOrder(t *testing.T) {
	rows := Rows([]weather.DailyRecord{{Station: "A"}, {Station: "B"}})
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0][1])
	assert.Equal(t, "B", rows[1][1])
	assert.Empty(t, Rows(nil))
}

func TestHeader_IsCopy(t *testing.T) {
	h := Header()
	h[0] = "changed"
	assert.Equal(t, "Date", Columns[0])
	assert.Len(t, Columns, 11)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, [][]string{Row(weather.DailyRecord{Date: "2025-01-05", Station: "KS52"})}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Date"))
	assert.Contains(t, lines[1], "KS52")
}
