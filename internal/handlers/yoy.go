package handlers

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insights/internal/models"
)

// YoYCompare compares two scalar values
// GET /v1/analytics/yoy/compare?current=150&prior=100
func (h *Handler) YoYCompare(c *fiber.Ctx) error {
	current, err := strconv.ParseFloat(c.Query("current"), 64)
	if err != nil || !isFinite(current) {
		return badRequest(c, "current must be a finite number")
	}
	prior, err := strconv.ParseFloat(c.Query("prior"), 64)
	if err != nil || !isFinite(prior) {
		return badRequest(c, "prior must be a finite number")
	}

	return c.JSON(h.service.YoYCompare(c.UserContext(), current, prior))
}

// YoYRange returns the calendar ranges of a YoY comparison. A bare date
// is read in the requested (or configured) timezone.
// GET /v1/analytics/yoy/range?date=2024-06-15&timezone=Asia/Tokyo
func (h *Handler) YoYRange(c *fiber.Ctx) error {
	timezone := c.Query("timezone")
	loc, err := h.service.ResolveLocation(timezone)
	if err != nil {
		return h.respondError(c, err)
	}

	reference := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw, loc)
		if err != nil {
			return badRequest(c, "date must be YYYY-MM-DD or RFC3339")
		}
		reference = parsed
	}

	resp, err := h.service.YoYRange(c.UserContext(), reference, timezone)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// YoYFromArrays pairs two monthly series by position
// POST /v1/analytics/yoy
func (h *Handler) YoYFromArrays(c *fiber.Ctx) error {
	var req models.YoYArraysRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	result, err := h.service.YoYFromArrays(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

// YoYChart builds a two-year monthly chart from raw points
// POST /v1/analytics/yoy/chart
func (h *Handler) YoYChart(c *fiber.Ctx) error {
	var req models.YoYChartRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	chart, err := h.service.YoYChart(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(chart)
}

// parseDate accepts a calendar date, read as midnight in loc, or RFC3339
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
