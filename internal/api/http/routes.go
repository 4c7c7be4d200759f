package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/crop-advisory/internal/advisory"
	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/disease"
	"github.com/i474232898/crop-advisory/internal/metrics"
	"github.com/i474232898/crop-advisory/internal/planner"
	"github.com/i474232898/crop-advisory/internal/weather"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "crop-advisory"

// WeatherService is the read side of the weather aggregation service.
type WeatherService interface {
	GetLatest(loc weather.Location) (weather.WeatherSnapshot, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error)
	GetForecast(ctx context.Context, loc weather.Location, days int) (weather.Forecast, error)
	Locations() []weather.Location
}

// Deps are the collaborators behind the HTTP API. Weather, Diseases and
// Metrics are optional.
type Deps struct {
	Planner  *planner.Planner
	Weather  WeatherService
	Diseases *disease.Analyzer
	Metrics  *metrics.Metrics

	// Language for disease analyses when the request does not name one.
	DefaultLanguage string
}

type handlers struct {
	Deps
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{Deps: deps}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": ServiceName,
		})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/crops", h.listCrops)
	v1.Get("/crops/:name", h.getCrop)
	v1.Get("/crops/:name/stage", h.cropStage)
	v1.Get("/crops/:name/diseases", h.cropDiseases)

	v1.Get("/regions", h.listRegions)
	v1.Get("/regions/resolve", h.resolveRegion)

	v1.Post("/plans", h.createPlan)
	v1.Post("/requirements", h.requirement)
	v1.Post("/advisories", h.advisories)

	v1.Get("/weather/locations", h.weatherLocations)
	v1.Get("/weather/current", h.currentWeather)
	v1.Get("/weather/history", h.weatherHistory)
	v1.Get("/weather/forecast", h.weatherForecast)
}

func (h *handlers) listCrops(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"crops": h.Planner.Catalog().Crops()})
}

func (h *handlers) getCrop(c *fiber.Ctx) error {
	crop, err := h.Planner.Catalog().Lookup(c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(crop)
}

func (h *handlers) cropStage(c *fiber.Ctx) error {
	sowing, err := parseDate("sowingDate", c.Query("sowingDate"))
	if err != nil {
		return err
	}
	if sowing.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "sowingDate query parameter is required")
	}
	asOf, err := parseDate("asOf", c.Query("asOf"))
	if err != nil {
		return err
	}

	crop, status, err := h.Planner.Stage(c.Params("name"), sowing, asOf)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"crop":       crop.Name(),
		"sowingDate": sowing.Format(dateLayout),
		"status":     status,
	})
}

func (h *handlers) cropDiseases(c *fiber.Ctx) error {
	if h.Diseases == nil {
		return disease.ErrNotConfigured
	}
	lang := c.Query("language", h.DefaultLanguage)
	res, err := h.Diseases.Analyze(c.UserContext(), c.Params("name"), lang)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) listRegions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"regions": h.Planner.Regions().Regions()})
}

func (h *handlers) resolveRegion(c *fiber.Ctx) error {
	res, err := h.Planner.Regions().Resolve(c.Query("location"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) createPlan(c *fiber.Ctx) error {
	var req planRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	sowing, err := parseDate("sowingDate", req.SowingDate)
	if err != nil {
		return err
	}
	asOf, err := parseDate("asOf", req.AsOf)
	if err != nil {
		return err
	}

	plan, err := h.Planner.Plan(planner.Request{
		Crop:       req.Crop,
		SowingDate: sowing,
		Location:   req.Location,
		Acres:      req.Acres,
		AsOf:       asOf,
		Weather:    req.Weather.snapshot(),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *handlers) requirement(c *fiber.Ctx) error {
	var req requirementRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	crop, err := h.Planner.Catalog().Lookup(req.Crop)
	if err != nil {
		return err
	}

	var region agronomy.Region
	if req.Region != "" {
		r, ok := h.Planner.Regions().Region(agronomy.RegionID(req.Region))
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown region "+req.Region)
		}
		region = r
	} else {
		res, err := h.Planner.Regions().Resolve(req.Location)
		if err != nil {
			return err
		}
		region = res.Region
	}

	total, err := h.Planner.Requirement(crop, region, req.Acres, req.Stage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"crop":        crop.Name(),
		"region":      region.ID,
		"stage":       req.Stage,
		"acres":       req.Acres,
		"policy":      h.Planner.Policy(),
		"requirement": total,
	})
}

func (h *handlers) advisories(c *fiber.Ctx) error {
	var req advisoryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	out := h.Planner.Advisor().Evaluate(req.Weather.snapshot())
	if out == nil {
		out = []advisory.Advisory{}
	}
	return c.JSON(fiber.Map{"advisories": out})
}

func (h *handlers) weatherLocations(c *fiber.Ctx) error {
	if h.Weather == nil {
		return errWeatherDisabled
	}
	return c.JSON(fiber.Map{"locations": h.Weather.Locations()})
}

func (h *handlers) currentWeather(c *fiber.Ctx) error {
	if h.Weather == nil {
		return errWeatherDisabled
	}
	locReq, err := parseLocationQuery(c)
	if err != nil {
		return err
	}

	snapshot, err := h.Weather.GetLatest(locReq.toLocation())
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

func (h *handlers) weatherHistory(c *fiber.Ctx) error {
	if h.Weather == nil {
		return errWeatherDisabled
	}
	var req historyQuery
	if err := req.bind(c); err != nil {
		return err
	}

	loc := req.Location.toLocation()
	snapshots, err := h.Weather.GetRange(loc, req.From, req.To)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"location":  loc,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

// forecastDay pairs one forecast day with the advisories it triggers.
type forecastDay struct {
	weather.WeatherSnapshot
	Advisories []advisory.Advisory `json:"advisories"`
}

func (h *handlers) weatherForecast(c *fiber.Ctx) error {
	var req forecastQuery
	if err := req.bind(c); err != nil {
		return err
	}
	if h.Weather == nil {
		return errWeatherDisabled
	}

	loc := req.Location.toLocation()
	fc, err := h.Weather.GetForecast(c.UserContext(), loc, req.Days)
	if err != nil {
		return err
	}

	days := make([]forecastDay, len(fc))
	for i := range fc {
		adv := h.Planner.Advisor().Evaluate(&fc[i])
		if adv == nil {
			adv = []advisory.Advisory{}
		}
		days[i] = forecastDay{WeatherSnapshot: fc[i], Advisories: adv}
	}
	return c.JSON(fiber.Map{
		"location": loc,
		"days":     days,
	})
}
