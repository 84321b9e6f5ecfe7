package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/pass-weather-report/internal/observability"
	"github.com/i474232898/pass-weather-report/internal/weather"
)

// DefaultSynopticBaseURL is the Synoptic Data v2 API root.
const DefaultSynopticBaseURL = "https://api.synopticdata.com/v2"

const (
	endpointTimeseries    = "timeseries"
	endpointPrecipitation = "precipitation"
	endpointLatest        = "latest"

	// Synoptic reports RESPONSE_CODE 1 on success and 2 when the query matched
	// no data.
	synopticOK     = 1
	synopticNoData = 2
)

// SynopticProvider implements the weather.Provider interface for Synoptic Data.
type SynopticProvider struct {
	name    string
	token   string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewSynopticProvider(client *http.Client, baseURL, token string, metrics *observability.Metrics, logger *slog.Logger) *SynopticProvider {
	if baseURL == "" {
		baseURL = DefaultSynopticBaseURL
	}
	return &SynopticProvider{
		name:    "synoptic",
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("synoptic"),
		metrics: metrics,
		logger:  logger.With("component", "synoptic"),
	}
}

func (p *SynopticProvider) Name() string {
	return p.name
}

type synopticSummary struct {
	ResponseCode    int    `json:"RESPONSE_CODE"`
	ResponseMessage string `json:"RESPONSE_MESSAGE"`
}

type synopticStation[O any] struct {
	STID         string `json:"STID"`
	Name         string `json:"NAME"`
	Observations *O     `json:"OBSERVATIONS"`
}

type synopticResponse[O any] struct {
	Station []synopticStation[O] `json:"STATION"`
	Summary synopticSummary      `json:"SUMMARY"`
}

type synopticPayload interface {
	summary() synopticSummary
	stations() int
}

// Timeseries fetches raw samples for vars over the window.
func (p *SynopticProvider) Timeseries(ctx context.Context, stationID string, vars []string, w weather.Window) (*weather.Timeseries, error) {
	params := url.Values{}
	params.Set("stid", stationID)
	params.Set("vars", strings.Join(vars, ","))
	params.Set("start", w.Start)
	params.Set("end", w.End)

	var payload synopticResponse[map[string]json.RawMessage]
	found, err := p.get(ctx, endpointTimeseries, params, &payload)
	if err != nil || !found {
		return nil, err
	}

	st := payload.Station[0]
	if st.Observations == nil {
		return nil, nil
	}

	ts := &weather.Timeseries{
		StationID: st.STID,
		Name:      st.Name,
		Values:    make(map[string][]*float64),
	}
	for key, raw := range *st.Observations {
		if key == "date_time" {
			if err := json.Unmarshal(raw, &ts.Times); err != nil {
				return nil, fmt.Errorf("synoptic timeseries %s: decode date_time: %w", stationID, err)
			}
			continue
		}
		// Derived sets such as wind_cardinal_direction_set_1d are strings; only
		// numeric sets are kept.
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			continue
		}
		ts.Values[key] = values
	}
	return ts, nil
}

type precipitationObservations struct {
	TotalPrecip   *float64 `json:"total_precip_value_1"`
	ObStart       string   `json:"ob_start_time_1"`
	ObEnd         string   `json:"ob_end_time_1"`
	Precipitation []struct {
		Total       *float64 `json:"total"`
		FirstReport string   `json:"first_report"`
		LastReport  string   `json:"last_report"`
	} `json:"precipitation"`
}

// Precipitation fetches the accumulated precipitation total for the window.
func (p *SynopticProvider) Precipitation(ctx context.Context, stationID string, w weather.Window) (*weather.Precipitation, error) {
	params := url.Values{}
	params.Set("stid", stationID)
	params.Set("start", w.Start)
	params.Set("end", w.End)

	var payload synopticResponse[precipitationObservations]
	found, err := p.get(ctx, endpointPrecipitation, params, &payload)
	if err != nil || !found {
		return nil, err
	}

	obs := payload.Station[0].Observations
	if obs == nil {
		return nil, nil
	}

	total := obs.TotalPrecip
	start, end := obs.ObStart, obs.ObEnd
	if len(obs.Precipitation) > 0 {
		first := obs.Precipitation[0]
		if total == nil {
			total = first.Total
		}
		if start == "" {
			start = first.FirstReport
		}
		if end == "" {
			end = first.LastReport
		}
	}
	if total == nil {
		// Station does not report precipitation for this window.
		return nil, nil
	}

	if start == "" {
		start = w.Start
	}
	if end == "" {
		end = w.End
	}
	return &weather.Precipitation{Millimeters: *total, Start: start, End: end}, nil
}

type latestValue struct {
	Value    json.RawMessage `json:"value"`
	DateTime string          `json:"date_time"`
}

// Latest fetches the most recent observation set for a station.
func (p *SynopticProvider) Latest(ctx context.Context, stationID string) (*weather.LatestObservation, error) {
	params := url.Values{}
	params.Set("stid", stationID)

	var payload synopticResponse[map[string]latestValue]
	found, err := p.get(ctx, endpointLatest, params, &payload)
	if err != nil || !found {
		return nil, err
	}

	st := payload.Station[0]
	obs := &weather.LatestObservation{StationID: st.STID, Name: st.Name}
	if st.Observations == nil {
		return obs, nil
	}

	values := *st.Observations
	obs.AirTempC = numericValue(values["air_temp_value_1"])
	obs.HighC = numericValue(values["air_temp_high_24_hour_value_1"])
	obs.LowC = numericValue(values["air_temp_low_24_hour_value_1"])
	obs.WindSpeedMS = numericValue(values["wind_speed_value_1"])
	obs.WindGustMS = numericValue(values["wind_gust_value_1"])
	obs.WindDirectionDeg = numericValue(values["wind_direction_value_1"])
	obs.WindCardinal = textValue(values["wind_cardinal_direction_value_1d"])

	if at, ok := values["air_temp_value_1"]; ok && at.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, at.DateTime); err == nil {
			obs.ObservedAt = t.UTC()
		}
	}
	return obs, nil
}

// get performs a GET against endpoint and decodes the body into out. It
// reports found=false when the provider matched no station data.
func (p *SynopticProvider) get(ctx context.Context, endpoint string, params url.Values, out synopticPayload) (bool, error) {
	params.Set("token", p.token)
	u := fmt.Sprintf("%s/stations/%s?%s", p.baseURL, endpoint, params.Encode())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("synoptic %s: create request: %w", endpoint, err)
	}

	start := time.Now()
	err = doRequest(ctx, p.client, p.circuit, req, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		// Rejected tokens come back as HTTP 200 with a non-OK response code.
		if sum := out.summary(); sum.ResponseCode != synopticOK && sum.ResponseCode != synopticNoData {
			return fmt.Errorf("%w: response code %d: %s", errResponseCode, sum.ResponseCode, sum.ResponseMessage)
		}
		return nil
	})
	p.metrics.ProviderDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return false, fmt.Errorf("synoptic %s %s: %w", endpoint, params.Get("stid"), err)
	}

	if out.summary().ResponseCode == synopticNoData || out.stations() == 0 {
		p.metrics.ProviderRequests.WithLabelValues(endpoint, "empty").Inc()
		return false, nil
	}

	p.metrics.ProviderRequests.WithLabelValues(endpoint, "success").Inc()
	p.logger.Debug("synoptic request complete",
		"endpoint", endpoint,
		"station", params.Get("stid"),
		"duration", time.Since(start),
	)
	return true, nil
}

func (r *synopticResponse[O]) summary() synopticSummary { return r.Summary }
func (r *synopticResponse[O]) stations() int           { return len(r.Station) }

func numericValue(v latestValue) *float64 {
	if len(v.Value) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(v.Value, &n); err != nil {
		return nil
	}
	return &n
}

func textValue(v latestValue) string {
	if len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return ""
	}
	return s
}
