package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/pass-weather-report/internal/store"
	"github.com/i474232898/pass-weather-report/internal/weather"
)

var validate = validator.New()

// ReportRunner runs the daily report for a given day.
type ReportRunner interface {
	Run(ctx context.Context, day time.Time) (store.RunResult, error)
	TargetDay() time.Time
}

// StationService lists stations and fetches their live conditions.
type StationService interface {
	Stations() []weather.Station
	Current(ctx context.Context, stationID string) (weather.Conditions, error)
}

// Deps are the collaborators behind the HTTP handlers.
type Deps struct {
	Runner   ReportRunner
	History  *store.MemoryStore
	Stations StationService
	Metrics  http.Handler
	Clock    clockwork.Clock
	// RunTimeout bounds a run triggered over HTTP.
	RunTimeout time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.RunTimeout <= 0 {
		deps.RunTimeout = 2 * time.Minute
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": "pass-weather-report",
		}
		if latest, err := deps.History.Latest(); err == nil {
			resp["lastRun"] = fiber.Map{
				"id":         latest.ID,
				"day":        latest.Day,
				"ok":         latest.OK(),
				"finishedAt": latest.FinishedAt,
			}
		}
		return c.JSON(resp)
	})

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/reports", func(c *fiber.Ctx) error {
		var q listQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"runs": deps.History.List(q.Limit)})
	})

	v1.Get("/reports/latest", func(c *fiber.Ctx) error {
		run, err := deps.History.Latest()
		if err != nil {
			return notFoundOr500(err, "no report runs yet")
		}
		return c.JSON(run)
	})

	v1.Get("/reports/:id", func(c *fiber.Ctx) error {
		run, err := deps.History.Get(c.Params("id"))
		if err != nil {
			return notFoundOr500(err, "report run not found")
		}
		return c.JSON(run)
	})

	v1.Post("/reports", func(c *fiber.Ctx) error {
		var req runRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		day, err := req.day(deps.Clock, deps.Runner.TargetDay)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.RunTimeout)
		defer cancel()

		run, err := deps.Runner.Run(ctx, day)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(run)
		}
		return c.Status(fiber.StatusCreated).JSON(run)
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"stations": deps.Stations.Stations()})
	})

	v1.Get("/stations/:id/current", func(c *fiber.Ctx) error {
		cond, err := deps.Stations.Current(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, weather.ErrUnknownStation) {
				return fiber.NewError(fiber.StatusNotFound, "unknown station")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch current conditions")
		}
		return c.JSON(cond)
	})
}

// ErrorHandler renders errors as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func notFoundOr500(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msg)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read report history")
}

// listQuery holds query parameters for the run history endpoint.
type listQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

// runRequest is the body of a manual run. An empty date means the default
// target day.
type runRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r runRequest) day(clock clockwork.Clock, fallback func() time.Time) (time.Time, error) {
	r.Date = strings.TrimSpace(r.Date)
	if err := validate.Struct(r); err != nil {
		return time.Time{}, errors.New("date must be formatted YYYY-MM-DD")
	}

	if r.Date == "" {
		return fallback(), nil
	}

	day, err := time.Parse(weather.DateLayout, r.Date)
	if err != nil {
		return time.Time{}, errors.New("date must be formatted YYYY-MM-DD")
	}
	if day.After(weather.TargetDay(clock, 0)) {
		return time.Time{}, errors.New("date must not be in the future")
	}
	return day, nil
}
