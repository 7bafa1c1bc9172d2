package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// DefaultProductID is used when a prediction request names no product.
const DefaultProductID = "P001"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *waste.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(service.Health(c.UserContext()))
	})

	v1 := app.Group("/api/v1")
	predict := v1.Group("/predict")

	predict.Post("/demand", func(c *fiber.Ctx) error {
		var req demandRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}

		forecast, err := service.Demand(c.UserContext(), req.productID())
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	})

	predict.Post("/spoilage", func(c *fiber.Ctx) error {
		var req spoilageRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}

		start, err := req.start()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summary, err := service.Spoilage(c.UserContext(), req.productID(), start)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	})

	predict.Get("/route", func(c *fiber.Ctx) error {
		plan, err := service.Routes(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(plan)
	})

	predict.Get("/route/latest", func(c *fiber.Ctx) error {
		plan, err := service.LatestPlan(c.UserContext())
		if err != nil {
			if errors.Is(err, waste.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no route plan has been generated yet")
			}
			return err
		}
		return c.JSON(plan)
	})

	predict.Get("/route/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		plans, err := service.PlanHistory(c.UserContext(), req.From, req.To)
		if err != nil {
			if errors.Is(err, waste.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no route plans stored")
			}
			return err
		}

		return c.JSON(fiber.Map{
			"from":  req.From,
			"to":    req.To,
			"plans": plans,
		})
	})
}

type productRequest struct {
	ProductID string `json:"product_id" validate:"omitempty,max=64,printascii"`
}

func (r productRequest) productID() string {
	if r.ProductID == "" {
		return DefaultProductID
	}
	return r.ProductID
}

type demandRequest struct {
	productRequest
}

type spoilageRequest struct {
	productRequest
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r spoilageRequest) start() (*time.Time, error) {
	if r.Date == "" {
		return nil, nil
	}
	t, err := time.Parse(waste.DateLayout, r.Date)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	return &t, nil
}

// bindBody parses an optional JSON body and validates it.
func bindBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
