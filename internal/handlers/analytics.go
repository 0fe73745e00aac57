package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insights/internal/models"
)

// Trend handles trend analysis
// POST /v1/analytics/trend
func (h *Handler) Trend(c *fiber.Ctx) error {
	var req models.TrendRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	result, err := h.service.Trend(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

// MovingAverage handles moving average requests
// POST /v1/analytics/moving-average
func (h *Handler) MovingAverage(c *fiber.Ctx) error {
	var req models.MovingAverageRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.MovingAverage(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// Anomalies runs a registered detector
// POST /v1/analytics/anomalies
func (h *Handler) Anomalies(c *fiber.Ctx) error {
	var req models.AnomalyRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.Anomalies(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// ThresholdBreaches flags points outside business limits
// POST /v1/analytics/anomalies/thresholds
func (h *Handler) ThresholdBreaches(c *fiber.Ctx) error {
	var req models.ThresholdRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.ThresholdBreaches(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// MovingWindowAnomalies scores points against their trailing window
// POST /v1/analytics/anomalies/window
func (h *Handler) MovingWindowAnomalies(c *fiber.Ctx) error {
	var req models.WindowAnomalyRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.MovingWindowAnomalies(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// BusinessAnomalies analyses several monthly metrics at once
// POST /v1/analytics/anomalies/business
func (h *Handler) BusinessAnomalies(c *fiber.Ctx) error {
	var req models.BusinessAnomalyRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.BusinessAnomalies(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// Summary returns trend, anomalies and moving average for one metric
// POST /v1/analytics/summary
func (h *Handler) Summary(c *fiber.Ctx) error {
	var req models.SummaryRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.service.Summary(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}
