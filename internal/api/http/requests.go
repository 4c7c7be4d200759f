package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/weather"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{
		City:    strings.TrimSpace(c.Query("city")),
		Country: strings.TrimSpace(c.Query("country")),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	if h.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if h.To, err = parseTime(toStr); err != nil {
		return err
	}
	return validate.Struct(h)
}

type forecastQuery struct {
	Location locationQuery
	Days     int `validate:"min=1,max=7"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	f.Location = loc

	raw := c.Query("days")
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "days query parameter is required")
	}
	if f.Days, err = strconv.Atoi(raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
	}
	return validate.Struct(f)
}

// weatherBody is client-supplied weather, used instead of stored data.
// Temperature and humidity must be sent; a missing value is not 0.
// Rain and wind default to none.
type weatherBody struct {
	TemperatureC *float64 `json:"temperatureC" validate:"required"`
	HumidityPct  *float64 `json:"humidityPercent" validate:"required,gte=0,lte=100"`
	PrecipMM     float64  `json:"precipMm" validate:"gte=0"`
	WindKph      float64  `json:"windKph" validate:"gte=0"`
}

func (w *weatherBody) snapshot() *weather.WeatherSnapshot {
	if w == nil {
		return nil
	}
	return &weather.WeatherSnapshot{
		Timestamp:   time.Now().UTC(),
		Temperature: *w.TemperatureC,
		Humidity:    *w.HumidityPct,
		PrecipMM:    w.PrecipMM,
		WindKph:     w.WindKph,
		Condition:   weather.ConditionUnknown,
	}
}

type planRequest struct {
	Crop       string       `json:"crop" validate:"required"`
	SowingDate string       `json:"sowingDate" validate:"required"`
	Location   string       `json:"location" validate:"required"`
	Acres      float64      `json:"acres" validate:"gt=0"`
	AsOf       string       `json:"asOf"`
	Weather    *weatherBody `json:"weather"`
}

type requirementRequest struct {
	Crop     string  `json:"crop" validate:"required"`
	Location string  `json:"location" validate:"required_without=Region"`
	Region   string  `json:"region"`
	Acres    float64 `json:"acres" validate:"gt=0"`
	Stage    string  `json:"stage" validate:"required"`
}

type advisoryRequest struct {
	Weather *weatherBody `json:"weather" validate:"required"`
}

func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return validate.Struct(out)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid time format; use RFC3339 or unix seconds")
}

// parseDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp.
// The empty string yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be a date like 2024-06-01, got %q", agronomy.ErrInvalidInput, field, s)
}

var errWeatherDisabled = errors.New("weather service is not configured")
