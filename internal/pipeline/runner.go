// Package pipeline ties one report run together: collect the day's station
// records, format them as rows, and hand them to a sink.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/pass-weather-report/internal/observability"
	"github.com/i474232898/pass-weather-report/internal/report"
	"github.com/i474232898/pass-weather-report/internal/sheets"
	"github.com/i474232898/pass-weather-report/internal/store"
	"github.com/i474232898/pass-weather-report/internal/weather"
)

// Collector produces one record per configured station for a day.
type Collector interface {
	Collect(ctx context.Context, w weather.Window) ([]weather.DailyRecord, error)
}

// Sink receives formatted report rows.
type Sink interface {
	Append(ctx context.Context, rows [][]string) (sheets.AppendResult, error)
}

// TableSink prints rows as an aligned table instead of writing them anywhere.
type TableSink struct {
	W io.Writer
}

func (s TableSink) Append(_ context.Context, rows [][]string) (sheets.AppendResult, error) {
	return sheets.AppendResult{}, report.WriteTable(s.W, rows)
}

// Runner executes report runs and records their results.
type Runner struct {
	collector Collector
	sink      Sink
	history   *store.MemoryStore
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *slog.Logger
	dayOffset int
	dryRun    bool

	// runs are serialized; the scheduler and the API may both trigger one
	mu sync.Mutex
}

// Options configures a Runner.
type Options struct {
	DayOffset int
	DryRun    bool
}

func NewRunner(collector Collector, sink Sink, history *store.MemoryStore, metrics *observability.Metrics,
	clock clockwork.Clock, logger *slog.Logger, opts Options) *Runner {
	return &Runner{
		collector: collector,
		sink:      sink,
		history:   history,
		metrics:   metrics,
		clock:     clock,
		logger:    logger.With("component", "pipeline"),
		dayOffset: opts.DayOffset,
		dryRun:    opts.DryRun,
	}
}

// TargetDay is the day a run without an explicit date reports on.
func (r *Runner) TargetDay() time.Time {
	return weather.TargetDay(r.clock, r.dayOffset)
}

// RunTarget runs the report for TargetDay.
func (r *Runner) RunTarget(ctx context.Context) (store.RunResult, error) {
	return r.Run(ctx, r.TargetDay())
}

// Run fetches, formats and appends the report for day. The result is stored
// whether or not the run succeeded.
func (r *Runner) Run(ctx context.Context, day time.Time) (store.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := weather.DayWindow(day)
	result := store.RunResult{
		ID:        uuid.NewString(),
		Day:       w.Date(),
		StartedAt: r.clock.Now().UTC(),
		DryRun:    r.dryRun,
	}
	logger := r.logger.With("run_id", result.ID, "day", result.Day)
	logger.Info("report run started", "start", w.Start, "end", w.End)

	err := r.run(ctx, w, &result, logger)

	result.FinishedAt = r.clock.Now().UTC()
	elapsed := result.FinishedAt.Sub(result.StartedAt)
	r.metrics.RunDuration.Observe(elapsed.Seconds())

	if err != nil {
		result.Error = err.Error()
		r.metrics.Runs.WithLabelValues("error").Inc()
		logger.Error("report run failed", "error", err, "duration", elapsed)
	} else {
		r.metrics.Runs.WithLabelValues("success").Inc()
		r.metrics.LastSuccess.Set(float64(result.FinishedAt.Unix()))
		logger.Info("report run complete",
			"rows", result.Rows,
			"start_row", result.StartRow,
			"duration", elapsed,
		)
	}

	r.history.Save(result)
	return result, err
}

func (r *Runner) run(ctx context.Context, w weather.Window, result *store.RunResult, logger *slog.Logger) error {
	records, err := r.collector.Collect(ctx, w)
	if err != nil {
		return fmt.Errorf("collect %s: %w", w.Date(), err)
	}
	result.Records = records

	rows := report.Rows(records)
	for _, row := range rows {
		logSummary(logger, row)
	}

	appended, err := r.sink.Append(ctx, rows)
	// A failed append may still have written rows, e.g. when only the
	// shading request failed.
	if appended.StartRow > 0 {
		result.Rows = len(rows)
		result.StartRow = appended.StartRow
		r.metrics.RowsAppended.Add(float64(len(rows)))
	}
	if err != nil {
		return fmt.Errorf("append %d rows: %w", len(rows), err)
	}

	result.Rows = len(rows)
	return nil
}

// logSummary logs one station's formatted readings.
func logSummary(logger *slog.Logger, row []string) {
	logger.Info("station summary",
		"date", row[0],
		"station", row[1],
		"temperature_f", row[2],
		"high_f", row[3],
		"low_f", row[4],
		"wind_avg_mph", row[5],
		"wind_peak_mph", row[6],
		"wind_direction", row[7],
		"precipitation_in", row[8],
		"swe_change_in", row[9],
		"notes", row[10],
	)
}
